package tasks

import (
	"fmt"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/world"
)

// Build animates a freshly placed structure through its BUILD frames,
// costPerFrame ticks each, raising its hit points as it goes.
type Build struct {
	frames       int
	costPerFrame int
	ticks        int
}

func NewBuild(frames, costPerFrame int) (*Build, error) {
	if frames <= 0 || costPerFrame <= 0 {
		return nil, fmt.Errorf("%w: build needs positive frames and cost, got %d x %d", world.ErrInvalidTask, frames, costPerFrame)
	}
	return &Build{frames: frames, costPerFrame: costPerFrame}, nil
}

func (b *Build) Kind() string                { return string(KindBuild) }
func (b *Build) Exclusive() bool             { return true }
func (b *Build) Eligible(u *world.Unit) bool { return world.StructureOnly.Accept(u) }
func (b *Build) Frames() int                 { return b.frames }
func (b *Build) CostPerFrame() int           { return b.costPerFrame }

// Duration is the total number of ticks the build runs.
func (b *Build) Duration() int { return b.frames * b.costPerFrame }

func (b *Build) Step(w *world.World, u *world.Unit) {
	if b.ticks == 0 {
		u.SetActivity(world.ActivityBuild)
		u.ResetAnimationFrame()
	}
	b.ticks++
	if b.ticks%b.costPerFrame == 0 {
		u.IncrementAnimationFrame()
	}
	if hp := u.Type.MaxHP * b.ticks / b.Duration(); hp > u.HP() {
		u.SetHP(hp)
	}
	if b.ticks < b.Duration() {
		return
	}
	u.SetHP(u.Type.MaxHP)
	w.Emit(protocol.Event{Type: "BUILD_DONE", Unit: u.ID})
	w.PlaySound("structureDone")
	finish(u, b)
}
