package world

import (
	"fmt"
	"sort"

	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/geom"
)

// Map is the occupancy grid. It tracks which unit blocks each cell, the
// movement reservations claimed during the current tick, ore deposits and
// the tube network.
type Map struct {
	bounds geom.Region

	cells    []*Unit
	reserved map[geom.Position]*Unit
	ore      map[geom.Position]Ore
	tubes    map[geom.Position]bool

	// units on the map, ascending by id.
	units []*Unit
}

func NewMap(width, height int) *Map {
	return &Map{
		bounds:   geom.Rect(0, 0, width, height),
		cells:    make([]*Unit, width*height),
		reserved: map[geom.Position]*Unit{},
		ore:      map[geom.Position]Ore{},
		tubes:    map[geom.Position]bool{},
	}
}

func (m *Map) Bounds() geom.Region           { return m.bounds }
func (m *Map) InBounds(p geom.Position) bool { return m.bounds.Contains(p) }

func (m *Map) idx(p geom.Position) int { return p.Y*m.bounds.W + p.X }

// GetUnit returns the unit occupying p, or nil.
func (m *Map) GetUnit(p geom.Position) *Unit {
	if !m.InBounds(p) {
		return nil
	}
	return m.cells[m.idx(p)]
}

// Units lists the placed units ordered by id.
func (m *Map) Units() []*Unit {
	out := make([]*Unit, len(m.units))
	copy(out, m.units)
	return out
}

func (m *Map) PutOre(p geom.Position, ore Ore) { m.ore[p] = ore }
func (m *Map) RemoveOre(p geom.Position)       { delete(m.ore, p) }

func (m *Map) GetOre(p geom.Position) (Ore, bool) {
	o, ok := m.ore[p]
	return o, ok
}

func (m *Map) HasResourceDeposit(p geom.Position) bool {
	_, ok := m.ore[p]
	return ok
}

func (m *Map) IsTube(p geom.Position) bool { return m.tubes[p] }
func (m *Map) PutTube(p geom.Position)     { m.tubes[p] = true }

// CanPlace reports whether a footprint at pos lies inside the map with
// every cell free. The margin around the occupied region must be free too.
func (m *Map) CanPlace(pos geom.Position, fp geom.Footprint) bool {
	b := fp.Bounds(pos)
	if !m.bounds.ContainsRegion(b) {
		return false
	}
	for _, c := range b.Cells() {
		if m.cells[m.idx(c)] != nil {
			return false
		}
		if r := m.reserved[c]; r != nil {
			return false
		}
	}
	return true
}

// CanPlaceUnit adds the tube rule on top of CanPlace: a type that needs
// tubes must touch the network with at least one connector.
func (m *Map) CanPlaceUnit(pos geom.Position, t *catalogs.UnitType) bool {
	if t == nil || !m.CanPlace(pos, t.Footprint) {
		return false
	}
	if !t.NeedsTubes {
		return true
	}
	for _, c := range t.Footprint.TubeCells(pos) {
		if m.tubes[c] {
			return true
		}
		for _, d := range geom.Directions {
			if m.tubes[d.Apply(c)] {
				return true
			}
		}
	}
	return false
}

// CanMoveUnit reports whether the unit occupying from may step one cell in
// dir. The destination must be inside the map, not blocked by another unit
// and not reserved by another unit.
func (m *Map) CanMoveUnit(from geom.Position, dir geom.Direction) bool {
	mover := m.GetUnit(from)
	if mover == nil || !dir.Valid() {
		return false
	}
	to := dir.Apply(from)
	if !m.InBounds(to) {
		return false
	}
	if o := m.cells[m.idx(to)]; o != nil && o != mover {
		return false
	}
	if r := m.reserved[to]; r != nil && r != mover {
		return false
	}
	return true
}

// Reserve claims p for u. A unit holds at most one reservation; claiming a
// new cell drops the old one. Reserve fails when another unit holds p.
func (m *Map) Reserve(p geom.Position, u *Unit) bool {
	if r := m.reserved[p]; r != nil && r != u {
		return false
	}
	m.Release(u)
	m.reserved[p] = u
	return true
}

func (m *Map) ReservedBy(p geom.Position) *Unit { return m.reserved[p] }

// Release drops every reservation held by u.
func (m *Map) Release(u *Unit) {
	for p, r := range m.reserved {
		if r == u {
			delete(m.reserved, p)
		}
	}
}

func (m *Map) ReservationCount() int { return len(m.reserved) }

// sweepReservations clears claims left over at the end of a tick and
// returns them.
func (m *Map) sweepReservations() map[geom.Position]*Unit {
	if len(m.reserved) == 0 {
		return nil
	}
	left := m.reserved
	m.reserved = map[geom.Position]*Unit{}
	return left
}

// PutUnit places u with its footprint anchored at pos, moving it if it is
// already on the map. Target cells must be free of other units and of
// reservations held by other units. Reservations held by u are consumed.
func (m *Map) PutUnit(u *Unit, pos geom.Position) error {
	occ := u.Type.Footprint.Occupied(pos)
	if !m.bounds.ContainsRegion(u.Type.Footprint.Bounds(pos)) {
		return fmt.Errorf("%w: %s at %s out of bounds", ErrCannotPlace, u.Type.Name, pos)
	}
	for _, c := range occ.Cells() {
		if o := m.cells[m.idx(c)]; o != nil && o != u {
			return fmt.Errorf("%w: %s blocked at %s by unit %d", ErrCannotPlace, u.Type.Name, c, o.ID)
		}
		if r := m.reserved[c]; r != nil && r != u {
			return fmt.Errorf("%w: %s at %s reserved by unit %d", ErrCannotPlace, u.Type.Name, c, r.ID)
		}
	}
	if u.placed {
		m.clearCells(u)
		u.prevPos = u.pos
	} else {
		u.prevPos = pos
		m.insert(u)
	}
	for _, c := range occ.Cells() {
		m.cells[m.idx(c)] = u
	}
	m.Release(u)
	u.pos = pos
	u.placed = true
	if u.Type.Connectable {
		for _, c := range u.Type.Footprint.TubeCells(pos) {
			m.tubes[c] = true
		}
	}
	return nil
}

// RemoveUnit takes u off the map and drops its reservations.
func (m *Map) RemoveUnit(u *Unit) {
	m.Release(u)
	if !u.placed {
		return
	}
	m.clearCells(u)
	u.placed = false
	i := sort.Search(len(m.units), func(i int) bool { return m.units[i].ID >= u.ID })
	if i < len(m.units) && m.units[i] == u {
		m.units = append(m.units[:i], m.units[i+1:]...)
	}
}

func (m *Map) clearCells(u *Unit) {
	for _, c := range u.Occupied().Cells() {
		if m.InBounds(c) && m.cells[m.idx(c)] == u {
			m.cells[m.idx(c)] = nil
		}
	}
}

func (m *Map) insert(u *Unit) {
	i := sort.Search(len(m.units), func(i int) bool { return m.units[i].ID >= u.ID })
	m.units = append(m.units, nil)
	copy(m.units[i+1:], m.units[i:])
	m.units[i] = u
}

// FindClosest returns the nearest live unit other than from that passes
// filter and whose occupied region lies within [minRange, maxRange] cells.
// Ties go to the lowest id.
func (m *Map) FindClosest(from *Unit, filter Filter, minRange, maxRange int) *Unit {
	var best *Unit
	bestDist := 0
	origin := from.Position()
	for _, u := range m.units {
		if u == from || u.dead || !filter.Accept(u) {
			continue
		}
		d := u.DistanceTo(origin)
		if d < minRange || d > maxRange {
			continue
		}
		if best == nil || d < bestDist {
			best, bestDist = u, d
		}
	}
	return best
}

// UnitsWithin lists live units whose occupied region is within radius of p.
func (m *Map) UnitsWithin(p geom.Position, radius int) []*Unit {
	var out []*Unit
	for _, u := range m.units {
		if !u.dead && u.DistanceTo(p) <= radius {
			out = append(out, u)
		}
	}
	return out
}
