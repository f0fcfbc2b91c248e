package tasks

import (
	"tilecraft.ai/internal/sim/geom"
	"tilecraft.ai/internal/sim/world"
)

// Rotate turns a unit (or its turret) 45 degrees per tick until it faces want.
type Rotate struct {
	want geom.Direction
}

func NewRotate(want geom.Direction) *Rotate { return &Rotate{want: want} }

func (r *Rotate) Kind() string                { return string(KindRotate) }
func (r *Rotate) Exclusive() bool             { return false }
func (r *Rotate) Eligible(u *world.Unit) bool { return canTurn.Accept(u) }

func (r *Rotate) Step(_ *world.World, u *world.Unit) {
	if !r.want.Valid() || u.Direction() == r.want {
		u.CompleteTask(r)
		return
	}
	u.SetDirection(geom.RotateToward(u.Direction(), r.want))
	if u.Direction() == r.want {
		u.CompleteTask(r)
	}
}
