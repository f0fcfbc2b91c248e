package world

import (
	"strings"

	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/geom"
)

// Unit is a vehicle, structure or guard post. All mutation happens on the
// world goroutine during a tick, so Unit carries no locks.
type Unit struct {
	ID   int
	Type *catalogs.UnitType

	world *World
	owner *Player

	pos     geom.Position
	prevPos geom.Position
	placed  bool

	dir      geom.Direction
	activity Activity
	frame    int
	cargo    Cargo
	hp       int

	dead     bool
	disabled bool

	queue     []Task
	stepDepth int
}

func (u *Unit) Owner() *Player          { return u.owner }
func (u *Unit) SetOwner(p *Player)      { u.owner = p }
func (u *Unit) Position() geom.Position { return u.pos }

// PreviousPosition is the cell the unit occupied before its last move.
func (u *Unit) PreviousPosition() geom.Position { return u.prevPos }

func (u *Unit) IsPlaced() bool { return u.placed }

func (u *Unit) Direction() geom.Direction     { return u.dir }
func (u *Unit) SetDirection(d geom.Direction) { u.dir = d }

func (u *Unit) Activity() Activity { return u.activity }
func (u *Unit) SetActivity(a Activity) {
	if u.dead {
		return
	}
	u.activity = a
}

func (u *Unit) AnimationFrame() int      { return u.frame }
func (u *Unit) IncrementAnimationFrame() { u.frame++ }
func (u *Unit) ResetAnimationFrame()     { u.frame = 0 }

func (u *Unit) Cargo() Cargo       { return u.cargo }
func (u *Unit) SetCargo(c Cargo)   { u.cargo = c }
func (u *Unit) IsCargoEmpty() bool { return u.cargo.IsEmpty() }

func (u *Unit) HP() int { return u.hp }
func (u *Unit) SetHP(hp int) {
	if hp < 0 {
		hp = 0
	}
	if hp > u.Type.MaxHP {
		hp = u.Type.MaxHP
	}
	u.hp = hp
}

func (u *Unit) HPFactor() float64 {
	if u.Type.MaxHP <= 0 {
		return 0
	}
	return float64(u.hp) / float64(u.Type.MaxHP)
}

func (u *Unit) HealthBracket() HealthBracket { return BracketFor(u.HPFactor()) }

func (u *Unit) IsDead() bool              { return u.dead }
func (u *Unit) IsDisabled() bool          { return u.disabled }
func (u *Unit) SetDisabled(off bool)      { u.disabled = off }
func (u *Unit) IsStructure() bool         { return u.Type.IsStructure() }
func (u *Unit) IsVehicle() bool           { return u.Type.IsVehicle() }
func (u *Unit) Footprint() geom.Footprint { return u.Type.Footprint }

// Is reports whether the unit's type name contains fragment.
func (u *Unit) Is(fragment string) bool { return strings.Contains(u.Type.Name, fragment) }

// Bounds is the full footprint rectangle at the current position.
func (u *Unit) Bounds() geom.Region { return u.Type.Footprint.Bounds(u.pos) }

// Occupied is the region the unit blocks on the map.
func (u *Unit) Occupied() geom.Region { return u.Type.Footprint.Occupied(u.pos) }

// DistanceTo is the grid distance from p to the nearest occupied cell.
func (u *Unit) DistanceTo(p geom.Position) int { return u.Occupied().Distance(p) }

// DockPosition is the cell a truck stands on to work this structure. Types
// without an explicit dock use the cell west of the occupied region for
// mines and the cell south of its lower-left corner otherwise.
func (u *Unit) DockPosition() geom.Position {
	if p, ok := u.Type.Footprint.DockCell(u.pos); ok {
		return p
	}
	occ := u.Occupied()
	if u.Type.Role == catalogs.RoleMine {
		return geom.Pos(occ.X-1, occ.Y)
	}
	return geom.Pos(occ.X, occ.Y+occ.H)
}
