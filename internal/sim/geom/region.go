package geom

// Region is an axis-aligned rectangle of cells with its top-left corner at (X,Y).
type Region struct {
	X int
	Y int
	W int
	H int
}

func Rect(x, y, w, h int) Region { return Region{X: x, Y: y, W: w, H: h} }

func (r Region) Origin() Position { return Position{X: r.X, Y: r.Y} }

func (r Region) Empty() bool { return r.W <= 0 || r.H <= 0 }

func (r Region) Contains(p Position) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X < r.X+r.W && p.Y < r.Y+r.H
}

func (r Region) ContainsRegion(o Region) bool {
	if o.Empty() {
		return true
	}
	return o.X >= r.X && o.Y >= r.Y && o.X+o.W <= r.X+r.W && o.Y+o.H <= r.Y+r.H
}

// Move shifts the region by the offset p.
func (r Region) Move(p Position) Region {
	return Region{X: r.X + p.X, Y: r.Y + p.Y, W: r.W, H: r.H}
}

// Cells lists the region's cells in row-major order.
func (r Region) Cells() []Position {
	if r.Empty() {
		return nil
	}
	out := make([]Position, 0, r.W*r.H)
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			out = append(out, Position{X: x, Y: y})
		}
	}
	return out
}

// Distance is the grid distance from p to the nearest cell of r.
func (r Region) Distance(p Position) int {
	if r.Empty() {
		return GridDistance(p, r.Origin())
	}
	cx := clamp(p.X, r.X, r.X+r.W-1)
	cy := clamp(p.Y, r.Y, r.Y+r.H-1)
	return GridDistance(p, Position{X: cx, Y: cy})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
