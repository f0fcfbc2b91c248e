package tasks

import (
	"fmt"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/geom"
	"tilecraft.ai/internal/sim/world"
)

var armed world.Filter = func(u *world.Unit) bool {
	return u.Type.HasTurret && u.Type.AttackRange > 0
}

// SelfDestructAttack waits until a unit passing filter comes within attack
// range and then blows the acting unit up.
type SelfDestructAttack struct {
	filter world.Filter
}

func NewSelfDestructAttack(filter world.Filter) (*SelfDestructAttack, error) {
	if filter == nil {
		return nil, fmt.Errorf("%w: self destruct attack needs a target filter", world.ErrInvalidTask)
	}
	return &SelfDestructAttack{filter: filter}, nil
}

func (s *SelfDestructAttack) Kind() string                { return string(KindSelfDestructAttack) }
func (s *SelfDestructAttack) Exclusive() bool             { return true }
func (s *SelfDestructAttack) Eligible(u *world.Unit) bool { return armed.Accept(u) }

func (s *SelfDestructAttack) Step(w *world.World, u *world.Unit) {
	if w.Map().FindClosest(u, s.filter, 1, u.Type.AttackRange) == nil {
		return
	}
	w.SelfDestruct(u)
}

// Attack fires on a target. A bound attack chases one unit and completes
// when it dies; a filtered attack guards its surroundings indefinitely,
// picking the nearest match in range each time the old target is gone.
type Attack struct {
	target   *world.Unit
	filter   world.Filter
	cooldown int
}

func NewAttack(target *world.Unit) (*Attack, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: attack: nil target", world.ErrInvalidTarget)
	}
	return &Attack{target: target}, nil
}

func NewGuard(filter world.Filter) (*Attack, error) {
	if filter == nil {
		return nil, fmt.Errorf("%w: guard needs a target filter", world.ErrInvalidTask)
	}
	return &Attack{filter: filter}, nil
}

func (a *Attack) Kind() string                { return string(KindAttack) }
func (a *Attack) Exclusive() bool             { return true }
func (a *Attack) Eligible(u *world.Unit) bool { return armed.Accept(u) && u.Type.Damage > 0 }
func (a *Attack) Target() *world.Unit         { return a.target }

func (a *Attack) Step(w *world.World, u *world.Unit) {
	if a.cooldown > 0 {
		a.cooldown--
	}
	rng := u.Type.AttackRange
	if a.filter != nil {
		if a.target == nil || a.target.IsDead() || a.target.DistanceTo(u.Position()) > rng {
			a.target = w.Map().FindClosest(u, a.filter, 1, rng)
		}
		if a.target == nil {
			u.SetActivity(world.ActivityStill)
			return
		}
	} else if a.target.IsDead() {
		finish(u, a)
		return
	}

	tgt := a.target
	if tgt.DistanceTo(u.Position()) > rng {
		if !u.Type.IsVehicle() {
			return
		}
		chase := NewSteerWithin(nearestCell(tgt, u.Position()), rng)
		if err := u.AssignNext(chase); err == nil {
			u.Step(w)
		}
		return
	}

	want := geom.MoveDirection(u.Position(), nearestCell(tgt, u.Position()))
	if want.Valid() && u.Direction() != want {
		u.SetDirection(geom.RotateToward(u.Direction(), want))
		return
	}
	u.SetActivity(world.ActivityAttack)
	if a.cooldown > 0 {
		return
	}
	w.ScheduleDamage(tgt, u.Type.Damage, w.Config().Tuning.AttackTravelTicks, u.ID)
	w.Emit(protocol.Event{Type: "FIRE", Unit: u.ID, Target: tgt.ID})
	w.PlaySound("laser")
	a.cooldown = u.Type.ReloadTicks
}

// nearestCell is the cell of t's occupied region closest to p.
func nearestCell(t *world.Unit, p geom.Position) geom.Position {
	occ := t.Occupied()
	x := min(max(p.X, occ.X), occ.X+occ.W-1)
	y := min(max(p.Y, occ.Y), occ.Y+occ.H-1)
	return geom.Pos(x, y)
}
