package world

import (
	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/geom"
)

type scheduledEffect struct {
	due   uint64
	seq   int
	name  string
	apply func(w *World)
}

// Schedule runs fn at the start of the tick delay ticks from now. Effects
// due on the same tick run in scheduling order.
func (w *World) Schedule(name string, delay int, fn func(w *World)) {
	if delay < 1 {
		delay = 1
	}
	w.effectSeq++
	w.effects = append(w.effects, scheduledEffect{
		due:   w.CurrentTick() + uint64(delay),
		seq:   w.effectSeq,
		name:  name,
		apply: fn,
	})
}

func (w *World) PendingEffects() int { return len(w.effects) }

func (w *World) runEffects(nowTick uint64) {
	if len(w.effects) == 0 {
		return
	}
	var due []scheduledEffect
	keep := w.effects[:0]
	for _, e := range w.effects {
		if e.due <= nowTick {
			due = append(due, e)
		} else {
			keep = append(keep, e)
		}
	}
	w.effects = keep
	for _, e := range due {
		e.apply(w)
	}
}

// Damage subtracts hit points and kills the unit at zero.
func (w *World) Damage(u *Unit, amount int, sourceID int) {
	if u == nil || u.dead || amount <= 0 {
		return
	}
	u.SetHP(u.hp - amount)
	w.Emit(protocol.Event{Type: "DAMAGE", Unit: u.ID, Target: sourceID, Amount: amount})
	if u.hp <= 0 {
		w.Kill(u)
	}
}

// Kill removes u from the map at once and stops all its tasks.
func (w *World) Kill(u *Unit) {
	if !w.remove(u) {
		return
	}
	w.Emit(protocol.Event{Type: "KILL", Unit: u.ID, Pos: posPtr(u.pos)})
	w.PlaySound("explode")
}

func (w *World) remove(u *Unit) bool {
	if u == nil || u.dead {
		return false
	}
	dropped := u.queue
	u.queue = nil
	u.dropTasks(dropped, nil)
	u.activity = ActivityDead
	u.dead = true
	u.hp = 0
	w.m.RemoveUnit(u)
	w.forget(u)
	return true
}

// SelfDestruct removes u immediately and schedules its blast. Splash damage
// lands SplashDelayTicks later around the cell where u stood.
func (w *World) SelfDestruct(u *Unit) {
	if u == nil || u.dead {
		return
	}
	center := u.pos
	radius := u.Type.SplashRadius
	if radius < 1 {
		radius = 1
	}
	damage := u.Type.Damage
	src := u.ID
	w.remove(u)
	w.Emit(protocol.Event{Type: "SELF_DESTRUCT", Unit: src, Pos: posPtr(center)})
	w.PlaySound("selfDestruct")
	w.ScheduleSplash(center, radius, damage, w.cfg.Tuning.SplashDelayTicks, src)
}

// ScheduleSplash queues area damage. Units take damage falling off linearly
// with the distance from center to their occupied region.
func (w *World) ScheduleSplash(center geom.Position, radius, damage, delay, sourceID int) {
	w.Schedule("splash", delay, func(w *World) {
		w.Emit(protocol.Event{Type: "SPLASH", Target: sourceID, Pos: posPtr(center), Amount: damage})
		for _, u := range w.m.UnitsWithin(center, radius) {
			d := u.DistanceTo(center)
			w.Damage(u, damage*(radius+1-d)/(radius+1), sourceID)
		}
	})
}

// ScheduleDamage queues a hit on a single unit, e.g. a projectile in flight.
func (w *World) ScheduleDamage(target *Unit, amount, delay, sourceID int) {
	w.Schedule("damage", delay, func(w *World) {
		w.Damage(target, amount, sourceID)
	})
}

func (w *World) SpawnMeteor(pos geom.Position) {
	w.Emit(protocol.Event{Type: "METEOR", Pos: posPtr(pos)})
	w.ScheduleSplash(pos, w.cfg.Tuning.MeteorRadius, w.cfg.Tuning.MeteorDamage, w.cfg.Tuning.SplashDelayTicks, 0)
}

// Transfer hands u to another player.
func (w *World) Transfer(u *Unit, to *Player) {
	if u == nil || u.dead || to == nil {
		return
	}
	u.owner = to
	w.Emit(protocol.Event{Type: "TRANSFER", Unit: u.ID, Target: to.ID})
}

func posPtr(p geom.Position) *[2]int {
	a := p.ToArray()
	return &a
}
