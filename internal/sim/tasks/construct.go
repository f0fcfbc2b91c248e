package tasks

import (
	"fmt"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/geom"
	"tilecraft.ai/internal/sim/world"
)

// Construct has a ConVec deploy a structure kit at pos and supervise it
// until the structure finishes building.
type Construct struct {
	target *world.Unit
	pos    geom.Position
}

// NewConstruct fails unless target is a structure or guard post.
func NewConstruct(target *world.Unit, pos geom.Position) (*Construct, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: construct: nil target", world.ErrInvalidTarget)
	}
	if !target.Type.IsStructure() && !target.Type.IsGuardPost() {
		return nil, fmt.Errorf("%w: construct: %s is not a structure", world.ErrInvalidTarget, target.Type.Name)
	}
	return &Construct{target: target, pos: pos}, nil
}

func (c *Construct) Kind() string                { return string(KindConstruct) }
func (c *Construct) Exclusive() bool             { return true }
func (c *Construct) Eligible(u *world.Unit) bool { return world.ConVecOnly.Accept(u) }
func (c *Construct) Target() *world.Unit         { return c.target }

// Abandon discards a kit that was never deployed.
func (c *Construct) Abandon(w *world.World, _ *world.Unit) {
	if !c.target.IsPlaced() {
		w.Discard(c.target)
	}
}

func (c *Construct) Step(w *world.World, u *world.Unit) {
	if u.Activity() != world.ActivityConstruct {
		if c.target.IsDead() {
			finish(u, c)
			return
		}
		if !c.target.IsPlaced() {
			if !w.Map().CanPlaceUnit(c.pos, c.target.Type) {
				return
			}
			if err := w.Place(c.target, c.pos); err != nil {
				return
			}
		}
		build, err := NewBuild(c.target.Type.FrameCount(string(world.ActivityBuild)), w.Config().Tuning.BuildCostPerFrame)
		if err != nil {
			w.Fatalf("construct %s: %v", c.target.Type.Name, err)
			return
		}
		if err := c.target.AssignNow(build); err != nil {
			w.Fatalf("construct %s: %v", c.target.Type.Name, err)
			return
		}
		c.target.SetActivity(world.ActivityBuild)
		c.target.SetHP(1)
		u.SetActivity(world.ActivityConstruct)
		u.ResetAnimationFrame()
		u.SetDirection(geom.SW)
		u.SetCargo(world.EmptyCargo)
		w.Emit(protocol.Event{Type: "CONSTRUCT", Unit: u.ID, Target: c.target.ID, Pos: posPtr(c.pos)})
		return
	}
	if c.target.Activity() != world.ActivityBuild {
		u.SetActivity(world.ActivityMove)
		u.ResetAnimationFrame()
		finish(u, c)
		return
	}
	u.IncrementAnimationFrame()
}

func posPtr(p geom.Position) *[2]int {
	a := p.ToArray()
	return &a
}
