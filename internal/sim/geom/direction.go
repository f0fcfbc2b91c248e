package geom

// Direction is one of the 8 compass directions, or None.
// The values are ordered clockwise starting at north so that
// (d+1)%8 is a 45 degree clockwise turn.
type Direction int

const (
	N Direction = iota
	NE
	E
	SE
	S
	SW
	W
	NW

	None Direction = -1
)

var dirDeltas = [8]Position{
	N:  {X: 0, Y: -1},
	NE: {X: 1, Y: -1},
	E:  {X: 1, Y: 0},
	SE: {X: 1, Y: 1},
	S:  {X: 0, Y: 1},
	SW: {X: -1, Y: 1},
	W:  {X: -1, Y: 0},
	NW: {X: -1, Y: -1},
}

var dirNames = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Directions lists the compass directions in clockwise order.
var Directions = [8]Direction{N, NE, E, SE, S, SW, W, NW}

func (d Direction) Valid() bool { return d >= N && d <= NW }

func (d Direction) String() string {
	if !d.Valid() {
		return "NONE"
	}
	return dirNames[d]
}

func (d Direction) Delta() Position {
	if !d.Valid() {
		return Position{}
	}
	return dirDeltas[d]
}

// Apply returns the neighbour of p in direction d (p itself for None).
func (d Direction) Apply(p Position) Position { return p.Add(d.Delta()) }

// Rotate turns d by steps*45 degrees clockwise (negative steps turn counter-clockwise).
func (d Direction) Rotate(steps int) Direction {
	if !d.Valid() {
		return None
	}
	r := (int(d) + steps) % 8
	if r < 0 {
		r += 8
	}
	return Direction(r)
}

func (d Direction) Opposite() Direction { return d.Rotate(4) }

// ParseDirection accepts the String() form. Unknown names map to None.
func ParseDirection(s string) Direction {
	for i, n := range dirNames {
		if n == s {
			return Direction(i)
		}
	}
	return None
}

// MoveDirection is the compass direction of the first step from a toward b.
// It returns None when a == b.
func MoveDirection(a, b Position) Direction {
	dx := sign(b.X - a.X)
	dy := sign(b.Y - a.Y)
	if dx == 0 && dy == 0 {
		return None
	}
	for i, d := range dirDeltas {
		if d.X == dx && d.Y == dy {
			return Direction(i)
		}
	}
	return None
}

// Alternatives lists the lateral directions to try when d is blocked:
// the two 45 degree neighbours, then the two 90 degree neighbours,
// clockwise first in each pair.
func Alternatives(d Direction) []Direction {
	if !d.Valid() {
		return nil
	}
	return []Direction{d.Rotate(1), d.Rotate(-1), d.Rotate(2), d.Rotate(-2)}
}

// RotateToward turns cur one 45 degree step toward want along the shorter arc.
// A half turn goes clockwise. None snaps straight to want.
func RotateToward(cur, want Direction) Direction {
	if !want.Valid() || cur == want {
		return cur
	}
	if !cur.Valid() {
		return want
	}
	diff := (int(want) - int(cur) + 8) % 8
	if diff <= 4 {
		return cur.Rotate(1)
	}
	return cur.Rotate(-1)
}

// TurnSteps is the number of 45 degree steps RotateToward needs to reach want.
func TurnSteps(cur, want Direction) int {
	if !want.Valid() || cur == want {
		return 0
	}
	if !cur.Valid() {
		return 1
	}
	diff := (int(want) - int(cur) + 8) % 8
	if diff > 4 {
		diff = 8 - diff
	}
	return diff
}
