package tasks_test

import (
	"testing"

	"tilecraft.ai/internal/sim/geom"
	"tilecraft.ai/internal/sim/tasks"
	"tilecraft.ai/internal/sim/world"
	"tilecraft.ai/internal/sim/worldtest"
)

func TestSteer_StraightLine(t *testing.T) {
	h := worldtest.NewHarness(t, 10, 10)
	u := h.SpawnFacing("eCargoTruck", h.P1, 0, 0, geom.E)
	s := tasks.NewSteer(geom.Pos(3, 0))
	h.Assign(u, s)

	for tick := 1; tick <= 3; tick++ {
		h.Step()
		if got := u.Position(); got != geom.Pos(tick, 0) {
			t.Fatalf("tick %d: pos=%s", tick, got)
		}
	}
	if !u.IsIdle() {
		t.Fatalf("expected steer complete on tick 3, queue=%d", len(u.Queue()))
	}
}

func TestSteer_RotatesBeforeMoving(t *testing.T) {
	h := worldtest.NewHarness(t, 10, 10)
	u := h.SpawnFacing("eCargoTruck", h.P1, 0, 0, geom.N)
	h.Assign(u, tasks.NewSteer(geom.Pos(3, 0)))

	h.Step()
	if u.Position() != geom.Pos(0, 0) || u.Direction() != geom.NE {
		t.Fatalf("tick 1: pos=%s dir=%s", u.Position(), u.Direction())
	}
	h.Step()
	if u.Position() != geom.Pos(0, 0) || u.Direction() != geom.E {
		t.Fatalf("tick 2: pos=%s dir=%s", u.Position(), u.Direction())
	}
	h.StepN(3)
	if u.Position() != geom.Pos(3, 0) || !u.IsIdle() {
		t.Fatalf("after 5 ticks: pos=%s idle=%v", u.Position(), u.IsIdle())
	}
}

func TestSteer_DetoursAroundParkedUnit(t *testing.T) {
	h := worldtest.NewHarness(t, 10, 10)
	u := h.SpawnFacing("eCargoTruck", h.P1, 0, 2, geom.E)
	h.Spawn("eEarthworker", h.P1, 1, 2)
	h.Assign(u, tasks.NewSteer(geom.Pos(4, 2)))

	h.StepUntil(20, func() bool { return u.Position() == geom.Pos(4, 2) })
	if !u.IsIdle() {
		t.Fatalf("expected idle after arrival")
	}
}

func TestSteer_BlockedDestinationWaits(t *testing.T) {
	h := worldtest.NewHarness(t, 10, 10)
	u := h.SpawnFacing("eCargoTruck", h.P1, 0, 0, geom.E)
	blocker := h.Spawn("eEarthworker", h.P1, 1, 0)
	h.Assign(u, tasks.NewSteer(geom.Pos(1, 0)))

	h.StepN(5)
	if u.Position() != geom.Pos(0, 0) || u.IsIdle() {
		t.Fatalf("expected unit to wait: pos=%s idle=%v", u.Position(), u.IsIdle())
	}
	if u.AnimationFrame() != 5 || u.Activity() != world.ActivityMove {
		t.Fatalf("blocked unit should spin: frame=%d activity=%s", u.AnimationFrame(), u.Activity())
	}
	h.W.Kill(blocker)
	h.StepN(2)
	if u.Position() != geom.Pos(1, 0) || !u.IsIdle() {
		t.Fatalf("expected arrival once freed: pos=%s idle=%v", u.Position(), u.IsIdle())
	}
}

func TestSteer_BlockedTurnsBeforeSpinning(t *testing.T) {
	h := worldtest.NewHarness(t, 10, 10)
	u := h.SpawnFacing("eCargoTruck", h.P1, 0, 0, geom.N)
	h.Spawn("eEarthworker", h.P1, 1, 0)
	h.Assign(u, tasks.NewSteer(geom.Pos(1, 0)))

	h.Step()
	if u.Direction() != geom.NE || u.AnimationFrame() != 0 {
		t.Fatalf("tick 1: dir=%s frame=%d", u.Direction(), u.AnimationFrame())
	}
	h.Step()
	if u.Direction() != geom.E || u.AnimationFrame() != 0 {
		t.Fatalf("tick 2: dir=%s frame=%d", u.Direction(), u.AnimationFrame())
	}
	h.StepN(3)
	if u.Direction() != geom.E || u.AnimationFrame() != 3 {
		t.Fatalf("tick 5: dir=%s frame=%d", u.Direction(), u.AnimationFrame())
	}
}

func TestSteer_NeverStepsBackIntoPreviousCell(t *testing.T) {
	h := worldtest.NewHarness(t, 12, 12)
	u := h.SpawnFacing("eCargoTruck", h.P1, 2, 5, geom.E)
	// A wall east of the unit's path.
	for y := 2; y <= 8; y++ {
		h.Spawn("eEarthworker", h.P2, 5, y)
	}
	h.Assign(u, tasks.NewSteer(geom.Pos(8, 5)))

	for i := 0; i < 40; i++ {
		before := u.Position()
		prev := u.PreviousPosition()
		h.Step()
		after := u.Position()
		if after != before && after == prev && prev != before {
			t.Fatalf("tick %d: stepped back from %s into %s", i, before, after)
		}
	}
}

func TestSteer_WithinStopsEarly(t *testing.T) {
	h := worldtest.NewHarness(t, 10, 10)
	u := h.SpawnFacing("eCargoTruck", h.P1, 0, 0, geom.E)
	h.Assign(u, tasks.NewSteerWithin(geom.Pos(6, 0), 2))
	h.StepUntil(10, u.IsIdle)
	if u.Position() != geom.Pos(4, 0) {
		t.Fatalf("pos=%s want (4,0)", u.Position())
	}
}

func TestSteer_RejectsStructures(t *testing.T) {
	h := worldtest.NewHarness(t, 20, 20)
	mine := h.Spawn("eCommonMine", h.P1, 5, 5)
	if err := mine.AssignNow(tasks.NewSteer(geom.Pos(0, 0))); err == nil {
		t.Fatalf("expected structures to reject steer")
	}
}
