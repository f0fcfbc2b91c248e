package tasks

import (
	"tilecraft.ai/internal/sim/geom"
	"tilecraft.ai/internal/sim/world"
)

// Move commits a single step into a cell the unit has already reserved.
type Move struct {
	dir geom.Direction
}

func (m *Move) Kind() string                { return string(KindMove) }
func (m *Move) Exclusive() bool             { return false }
func (m *Move) Eligible(u *world.Unit) bool { return world.VehicleOnly.Accept(u) }

func (m *Move) Step(w *world.World, u *world.Unit) {
	u.CompleteTask(m)
	to := m.dir.Apply(u.Position())
	if w.Map().ReservedBy(to) != u {
		return
	}
	if err := w.Map().PutUnit(u, to); err != nil {
		w.Map().Release(u)
		return
	}
	u.IncrementAnimationFrame()
}
