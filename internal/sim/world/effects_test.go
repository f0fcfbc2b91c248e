package world

import (
	"testing"

	"tilecraft.ai/internal/sim/geom"
)

func TestKill_RemovesImmediately(t *testing.T) {
	w := newTestWorld(t, 8, 8)
	u := mustSpawn(t, w, "eCargoTruck", nil, 3, 3)
	_ = u.AssignNow(&scriptTask{name: "busy"})
	w.Kill(u)
	if !u.IsDead() || u.IsPlaced() || !u.IsIdle() || u.Activity() != ActivityDead {
		t.Fatalf("dead=%v placed=%v idle=%v activity=%s", u.IsDead(), u.IsPlaced(), u.IsIdle(), u.Activity())
	}
	if w.Map().GetUnit(geom.Pos(3, 3)) != nil {
		t.Fatalf("cell still occupied")
	}
	if _, ok := w.Unit(u.ID); ok {
		t.Fatalf("dead unit still registered")
	}
	if err := u.AssignNow(&scriptTask{name: "late"}); err == nil {
		t.Fatalf("dead units accept no tasks")
	}
}

func TestSpawnMeteor_DelayedFalloff(t *testing.T) {
	w := newTestWorld(t, 16, 16)
	center := mustSpawn(t, w, "eCommonMine", nil, 4, 4) // occupies (5,5)
	edge := mustSpawn(t, w, "eCargoTruck", nil, 7, 5)   // distance 2
	out := mustSpawn(t, w, "eCargoTruck", nil, 9, 5)    // distance 4
	tun := w.Config().Tuning

	w.SpawnMeteor(geom.Pos(5, 5))
	for i := 0; i < tun.SplashDelayTicks; i++ {
		if center.HP() != center.Type.MaxHP {
			t.Fatalf("damage before delay elapsed")
		}
		w.StepOnce()
	}
	w.StepOnce()
	r := tun.MeteorRadius
	if want := center.Type.MaxHP - tun.MeteorDamage; center.HP() != want {
		t.Fatalf("center hp=%d want %d", center.HP(), want)
	}
	if want := edge.Type.MaxHP - tun.MeteorDamage*(r+1-2)/(r+1); want > 0 && edge.HP() != want {
		t.Fatalf("edge hp=%d want %d", edge.HP(), want)
	}
	if out.HP() != out.Type.MaxHP {
		t.Fatalf("unit outside radius damaged")
	}
	if w.PendingEffects() != 0 {
		t.Fatalf("effects left: %d", w.PendingEffects())
	}
}

func TestDamage_KillsAtZero(t *testing.T) {
	w := newTestWorld(t, 8, 8)
	u := mustSpawn(t, w, "eCargoTruck", nil, 1, 1)
	w.ScheduleDamage(u, u.Type.MaxHP/2, 1, 0)
	w.ScheduleDamage(u, u.Type.MaxHP, 2, 0)
	w.StepOnce()
	if u.IsDead() {
		t.Fatalf("effects applied early")
	}
	w.StepOnce()
	if u.IsDead() || u.HP() != u.Type.MaxHP/2 {
		t.Fatalf("hp=%d", u.HP())
	}
	w.StepOnce()
	if !u.IsDead() {
		t.Fatalf("expected death")
	}
}

func TestTransfer_ChangesOwner(t *testing.T) {
	w := newTestWorld(t, 8, 8)
	a, b := NewPlayer(1, "a", 0), NewPlayer(2, "b", 0)
	w.AddPlayer(a)
	w.AddPlayer(b)
	u := mustSpawn(t, w, "eCargoTruck", a, 1, 1)
	w.Transfer(u, b)
	if u.Owner() != b {
		t.Fatalf("owner=%v", u.Owner())
	}
	if !OwnedBy(b)(u) || HostileTo(b)(u) {
		t.Fatalf("filters disagree with new owner")
	}
}
