package world

import (
	"testing"

	"tilecraft.ai/internal/sim/geom"
)

func TestMap_ReservationIsExclusive(t *testing.T) {
	w := newTestWorld(t, 8, 8)
	a := mustSpawn(t, w, "eCargoTruck", nil, 0, 0)
	b := mustSpawn(t, w, "eCargoTruck", nil, 2, 0)
	m := w.Map()
	if !m.Reserve(geom.Pos(1, 0), a) {
		t.Fatalf("first reserve failed")
	}
	if m.Reserve(geom.Pos(1, 0), b) {
		t.Fatalf("second unit reserved a claimed cell")
	}
	if m.CanMoveUnit(geom.Pos(2, 0), geom.W) {
		t.Fatalf("b may not move into a's reserved cell")
	}
	if !m.CanMoveUnit(geom.Pos(0, 0), geom.E) {
		t.Fatalf("a may move into its own reservation")
	}
	// A unit holds one claim at a time.
	if !m.Reserve(geom.Pos(0, 1), a) || m.ReservedBy(geom.Pos(1, 0)) != nil {
		t.Fatalf("re-reserving should drop the old claim")
	}
	if m.ReservationCount() != 1 {
		t.Fatalf("reservations=%d", m.ReservationCount())
	}
}

func TestMap_EndOfTickSweep(t *testing.T) {
	w := newTestWorld(t, 8, 8)
	a := mustSpawn(t, w, "eCargoTruck", nil, 0, 0)
	_ = a.AssignNow(&scriptTask{name: "claim", onStep: func(w *World, u *Unit) {
		w.Map().Reserve(geom.Pos(1, 0), u)
	}})
	w.StepOnce()
	if w.Map().ReservationCount() != 0 {
		t.Fatalf("abandoned reservation survived the tick")
	}
}

func TestMap_CanMoveUnit(t *testing.T) {
	w := newTestWorld(t, 4, 4)
	a := mustSpawn(t, w, "eCargoTruck", nil, 0, 0)
	mustSpawn(t, w, "eCargoTruck", nil, 1, 1)
	m := w.Map()
	cases := []struct {
		dir  geom.Direction
		want bool
	}{
		{geom.N, false},  // off map
		{geom.W, false},  // off map
		{geom.SE, false}, // occupied
		{geom.E, true},
		{geom.S, true},
		{geom.None, false},
	}
	for _, c := range cases {
		if got := m.CanMoveUnit(a.Position(), c.dir); got != c.want {
			t.Fatalf("dir %s: got %v want %v", c.dir, got, c.want)
		}
	}
	if m.CanMoveUnit(geom.Pos(3, 3), geom.N) {
		t.Fatalf("empty cell has no mover")
	}
}

func TestMap_PutUnitTracksOccupancy(t *testing.T) {
	w := newTestWorld(t, 16, 16)
	smelter := mustSpawn(t, w, "eCommonSmelter", nil, 2, 2)
	m := w.Map()
	occ := smelter.Occupied()
	for _, c := range smelter.Bounds().Cells() {
		got := m.GetUnit(c)
		if occ.Contains(c) && got != smelter {
			t.Fatalf("inner cell %s not occupied", c)
		}
		if !occ.Contains(c) && got != nil {
			t.Fatalf("margin cell %s occupied", c)
		}
	}
	truck := mustSpawn(t, w, "eCargoTruck", nil, 0, 0)
	if err := m.PutUnit(truck, geom.Pos(4, 3)); err == nil {
		t.Fatalf("moved onto a structure")
	}
	if err := m.PutUnit(truck, geom.Pos(1, 0)); err != nil {
		t.Fatalf("move: %v", err)
	}
	if m.GetUnit(geom.Pos(0, 0)) != nil || m.GetUnit(geom.Pos(1, 0)) != truck {
		t.Fatalf("ghost occupancy after move")
	}
	if truck.PreviousPosition() != geom.Pos(0, 0) {
		t.Fatalf("prev=%s", truck.PreviousPosition())
	}
}

func TestMap_CanPlaceNeedsClearBounds(t *testing.T) {
	w := newTestWorld(t, 16, 16)
	mine, _ := w.Catalogs().Units.Get("eCommonMine")
	m := w.Map()
	if !m.CanPlaceUnit(geom.Pos(0, 0), mine) {
		t.Fatalf("empty corner should fit a mine")
	}
	if m.CanPlaceUnit(geom.Pos(14, 14), mine) {
		t.Fatalf("mine overhangs the map edge")
	}
	mustSpawn(t, w, "eCargoTruck", nil, 0, 2)
	if m.CanPlaceUnit(geom.Pos(0, 0), mine) {
		t.Fatalf("vehicle in the footprint margin must block placement")
	}
}

func TestMap_TubeRules(t *testing.T) {
	w := newTestWorld(t, 16, 16)
	factory, _ := w.Catalogs().Units.Get("eStructureFactory")
	m := w.Map()
	if m.CanPlaceUnit(geom.Pos(5, 5), factory) {
		t.Fatalf("factory placed without tubes")
	}
	mustSpawn(t, w, "eCommandCenter", nil, 0, 5)
	// Command centre connector (4,2) lands on (4,7); the factory's west
	// connector (0,2) at (5,7) sits right beside it.
	if !m.IsTube(geom.Pos(4, 7)) {
		t.Fatalf("connectable structure did not lay tubes")
	}
	if !m.CanPlaceUnit(geom.Pos(5, 5), factory) {
		t.Fatalf("factory next to the command centre connector should fit")
	}
}

func TestMap_FindClosest(t *testing.T) {
	w := newTestWorld(t, 16, 16)
	p1 := NewPlayer(1, "a", 0)
	p2 := NewPlayer(2, "b", 0)
	self := mustSpawn(t, w, "eLynxLaser", p1, 5, 5)
	mustSpawn(t, w, "eCargoTruck", p1, 6, 5)
	near := mustSpawn(t, w, "eCargoTruck", p2, 5, 7)
	tieLow := mustSpawn(t, w, "eCargoTruck", p2, 2, 5)
	mustSpawn(t, w, "eCargoTruck", p2, 8, 5)
	far := mustSpawn(t, w, "eCargoTruck", p2, 9, 9)
	m := w.Map()

	if got := m.FindClosest(self, HostileTo(p1), 1, 4); got != near {
		t.Fatalf("got %v want near (%d)", got, near.ID)
	}
	w.Kill(near)
	if got := m.FindClosest(self, HostileTo(p1), 1, 4); got != tieLow {
		t.Fatalf("lowest id should win ties, got %v", got)
	}
	if got := m.FindClosest(self, HostileTo(p1), 4, 4); got != far {
		t.Fatalf("range band not honoured, got %v", got)
	}
	if got := m.FindClosest(self, HostileTo(p1), 1, 2); got != nil {
		t.Fatalf("expected nothing within 2, got %d", got.ID)
	}
}
