// Package tasks holds the unit behaviours stepped by the world: steering,
// construction, mining logistics and combat.
package tasks

import "tilecraft.ai/internal/sim/world"

type Kind string

const (
	KindSteer              Kind = "STEER"
	KindRotate             Kind = "ROTATE"
	KindMove               Kind = "MOVE"
	KindConstruct          Kind = "CONSTRUCT"
	KindBuild              Kind = "BUILD"
	KindMine               Kind = "MINE"
	KindDock               Kind = "DOCK"
	KindDump               Kind = "DUMP"
	KindMineRoute          Kind = "MINE_ROUTE"
	KindAttack             Kind = "ATTACK"
	KindSelfDestructAttack Kind = "SELF_DESTRUCT_ATTACK"
)

var canTurn world.Filter = func(u *world.Unit) bool {
	return u.Type.IsVehicle() || u.Type.HasTurret
}

// finish completes t and drops a unit with nothing left to do back to STILL.
func finish(u *world.Unit, t world.Task) {
	u.CompleteTask(t)
	if u.IsIdle() {
		u.SetActivity(world.ActivityStill)
		u.ResetAnimationFrame()
	}
}
