package tasks_test

import (
	"errors"
	"testing"

	"tilecraft.ai/internal/sim/tasks"
	"tilecraft.ai/internal/sim/world"
	"tilecraft.ai/internal/sim/worldtest"
)

func TestMine_LoadsCargoAfterAnimation(t *testing.T) {
	h := worldtest.NewHarness(t, 8, 8)
	truck := h.Spawn("eCargoTruck", h.P1, 1, 1)
	m, err := tasks.NewMine(world.Ore{Resource: world.RareOre, Load: 60})
	if err != nil {
		t.Fatalf("NewMine: %v", err)
	}
	h.Assign(truck, m)
	frames := truck.Type.FrameCount("MINE")
	h.StepN(frames - 1)
	if !truck.IsCargoEmpty() || truck.Activity() != world.ActivityMine {
		t.Fatalf("loaded early: cargo=%v activity=%s", truck.Cargo(), truck.Activity())
	}
	h.Step()
	c := truck.Cargo()
	if c.Kind != world.CargoOre || c.Resource != world.RareOre || c.Amount != 60 {
		t.Fatalf("cargo=%+v", c)
	}
	if !truck.IsIdle() {
		t.Fatalf("mine should complete")
	}
}

func TestDock_CreditsOwnerAndEmpties(t *testing.T) {
	h := worldtest.NewHarness(t, 16, 16)
	smelter := h.Spawn("eCommonSmelter", h.P1, 2, 2)
	truck := h.Spawn("eCargoTruck", h.P1, 3, 5)
	truck.SetCargo(world.OreCargo(world.CommonOre, 100))
	d, err := tasks.NewDock(smelter, world.EmptyCargo)
	if err != nil {
		t.Fatalf("NewDock: %v", err)
	}
	h.Assign(truck, d)
	h.StepUntil(20, truck.IsIdle)
	if !truck.IsCargoEmpty() || h.P1.Resource(world.CommonOre) != 100 {
		t.Fatalf("cargo=%v stock=%d", truck.Cargo(), h.P1.Resource(world.CommonOre))
	}
}

func TestDock_RejectsWrongOre(t *testing.T) {
	h := worldtest.NewHarness(t, 16, 16)
	smelter := h.Spawn("eCommonSmelter", h.P1, 2, 2)
	truck := h.Spawn("eCargoTruck", h.P1, 3, 5)
	truck.SetCargo(world.OreCargo(world.RareOre, 100))
	d, _ := tasks.NewDock(smelter, world.EmptyCargo)
	h.Assign(truck, d)
	h.StepUntil(20, truck.IsIdle)
	if truck.IsCargoEmpty() || h.P1.Resource(world.RareOre) != 0 {
		t.Fatalf("common smelter accepted rare ore")
	}
	if h.CountEvents("DOCK_REJECT") != 1 {
		t.Fatalf("expected DOCK_REJECT")
	}
}

func TestNewDock_RequiresSmelter(t *testing.T) {
	h := worldtest.NewHarness(t, 16, 16)
	mine := h.Spawn("eCommonMine", h.P1, 2, 2)
	if _, err := tasks.NewDock(mine, world.EmptyCargo); !errors.Is(err, world.ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
}

func TestDump_ClearsCargo(t *testing.T) {
	h := worldtest.NewHarness(t, 8, 8)
	truck := h.Spawn("eCargoTruck", h.P1, 1, 1)
	truck.SetCargo(world.OreCargo(world.CommonOre, 40))
	h.Assign(truck, tasks.NewDump())
	h.StepN(truck.Type.FrameCount("DUMP"))
	if !truck.IsCargoEmpty() || !truck.IsIdle() || truck.Activity() != world.ActivityStill {
		t.Fatalf("cargo=%v idle=%v activity=%s", truck.Cargo(), truck.IsIdle(), truck.Activity())
	}
}

func TestTruckTasks_RejectOtherVehicles(t *testing.T) {
	h := worldtest.NewHarness(t, 8, 8)
	cv := h.Spawn("eConVec", h.P1, 1, 1)
	if err := cv.AssignNow(tasks.NewDump()); !errors.Is(err, world.ErrIneligibleUnit) {
		t.Fatalf("expected ErrIneligibleUnit, got %v", err)
	}
}
