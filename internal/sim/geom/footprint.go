package geom

// Footprint is the fixed shape of a unit type. The full W x H area must be clear
// to place the unit; only Inner is occupied once placed. Tubes and Dock are
// offsets relative to the footprint origin.
type Footprint struct {
	W     int
	H     int
	Inner Region
	Tubes []Position
	Dock  *Position
}

// Unit1x1 is the footprint of vehicles and single-cell structures.
var Unit1x1 = Footprint{W: 1, H: 1, Inner: Region{W: 1, H: 1}}

// Bounds is the full footprint area placed at pos.
func (f Footprint) Bounds(pos Position) Region {
	return Region{X: pos.X, Y: pos.Y, W: f.W, H: f.H}
}

// Occupied is the inner region placed at pos.
func (f Footprint) Occupied(pos Position) Region { return f.Inner.Move(pos) }

// Center is the middle cell of the inner region, relative to the footprint origin.
func (f Footprint) Center() Position {
	return Position{X: f.Inner.X + f.Inner.W/2, Y: f.Inner.Y + f.Inner.H/2}
}

// TubeCells lists the connector cells for a footprint placed at pos.
func (f Footprint) TubeCells(pos Position) []Position {
	out := make([]Position, 0, len(f.Tubes))
	for _, t := range f.Tubes {
		out = append(out, pos.Add(t))
	}
	return out
}

// DockCell is where a vehicle parks to service a footprint placed at pos.
func (f Footprint) DockCell(pos Position) (Position, bool) {
	if f.Dock == nil {
		return Position{}, false
	}
	return pos.Add(*f.Dock), true
}

func (f Footprint) Valid() bool {
	if f.W <= 0 || f.H <= 0 || f.Inner.Empty() {
		return false
	}
	return Region{W: f.W, H: f.H}.ContainsRegion(f.Inner)
}
