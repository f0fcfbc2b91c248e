package world

// Activity is the coarse behavioural state of a unit. Tasks drive it; the
// renderer and the frame stream read it.
type Activity string

const (
	ActivityStill     Activity = "STILL"
	ActivityMove      Activity = "MOVE"
	ActivityBuild     Activity = "BUILD"
	ActivityConstruct Activity = "CONSTRUCT"
	ActivityMine      Activity = "MINE"
	ActivityDock      Activity = "DOCK"
	ActivityDump      Activity = "DUMP"
	ActivityAttack    Activity = "ATTACK"
	ActivityDead      Activity = "DEAD"
)

type HealthBracket string

const (
	HealthGreen  HealthBracket = "GREEN"
	HealthYellow HealthBracket = "YELLOW"
	HealthRed    HealthBracket = "RED"
)

// BracketFor maps a hit point fraction onto a health bracket.
func BracketFor(hpFactor float64) HealthBracket {
	switch {
	case hpFactor < 0.25:
		return HealthRed
	case hpFactor < 0.5:
		return HealthYellow
	default:
		return HealthGreen
	}
}
