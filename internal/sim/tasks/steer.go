package tasks

import (
	"tilecraft.ai/internal/sim/geom"
	"tilecraft.ai/internal/sim/world"
)

// Steer drives a vehicle toward a destination one cell per tick. It turns
// before moving, reserves the next cell, and when the direct cell is blocked
// detours through the nearest open neighbouring direction, never back into
// the cell it just left.
type Steer struct {
	dest   geom.Position
	within int
	detour bool
}

func NewSteer(dest geom.Position) *Steer { return &Steer{dest: dest} }

// NewSteerWithin stops once the unit is within n cells of dest.
func NewSteerWithin(dest geom.Position, n int) *Steer {
	if n < 0 {
		n = 0
	}
	return &Steer{dest: dest, within: n}
}

func (s *Steer) Kind() string                { return string(KindSteer) }
func (s *Steer) Exclusive() bool             { return true }
func (s *Steer) Eligible(u *world.Unit) bool { return world.VehicleOnly.Accept(u) }
func (s *Steer) Destination() geom.Position  { return s.dest }
func (s *Steer) IsDetour() bool              { return s.detour }

func (s *Steer) arrived(p geom.Position) bool {
	return geom.GridDistance(p, s.dest) <= s.within
}

func (s *Steer) Step(w *world.World, u *world.Unit) {
	pos := u.Position()
	if s.arrived(pos) {
		finish(u, s)
		return
	}
	u.SetActivity(world.ActivityMove)

	m := w.Map()
	dir := geom.MoveDirection(pos, s.dest)
	if !m.CanMoveUnit(pos, dir) {
		if s.detour {
			// Hand control back to the steer that picked this cell.
			u.CompleteTask(s)
			u.IncrementAnimationFrame()
			return
		}
		if next := dir.Apply(pos); next != s.dest {
			for _, alt := range geom.Alternatives(dir) {
				cell := alt.Apply(pos)
				if cell == u.PreviousPosition() || !m.CanMoveUnit(pos, alt) {
					continue
				}
				if err := u.AssignNext(&Steer{dest: cell, detour: true}); err != nil {
					return
				}
				u.Step(w)
				return
			}
		}
		// Boxed in: face the goal, otherwise spin in place.
		if u.Direction() != dir && dir.Valid() {
			u.SetDirection(geom.RotateToward(u.Direction(), dir))
			return
		}
		u.IncrementAnimationFrame()
		return
	}

	if u.Direction() != dir {
		if err := u.AssignNext(NewRotate(dir)); err != nil {
			return
		}
		u.Step(w)
		return
	}
	if !m.Reserve(dir.Apply(pos), u) {
		return
	}
	if err := u.AssignNext(&Move{dir: dir}); err != nil {
		m.Release(u)
		return
	}
	u.Step(w)
	if s.arrived(u.Position()) {
		finish(u, s)
	}
}
