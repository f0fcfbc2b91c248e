// Package geom holds the integer grid value types shared by the map, units and tasks.
package geom

import "fmt"

// Position is an integer grid coordinate. Y grows southward.
type Position struct {
	X int
	Y int
}

func Pos(x, y int) Position { return Position{X: x, Y: y} }

func (p Position) Shift(dx, dy int) Position { return Position{X: p.X + dx, Y: p.Y + dy} }

func (p Position) Add(o Position) Position { return Position{X: p.X + o.X, Y: p.Y + o.Y} }

func (p Position) Subtract(o Position) Position { return Position{X: p.X - o.X, Y: p.Y - o.Y} }

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

func (p Position) ToArray() [2]int { return [2]int{p.X, p.Y} }

// GridDistance is the number of 8-connected steps between a and b.
func GridDistance(a, b Position) int {
	dx := absInt(a.X - b.X)
	dy := absInt(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func Manhattan(a, b Position) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

// Adjacent reports whether b is one of the 8 neighbours of a.
func Adjacent(a, b Position) bool {
	return a != b && GridDistance(a, b) == 1
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
