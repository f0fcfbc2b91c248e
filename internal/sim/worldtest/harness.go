package worldtest

import (
	"os"
	"path/filepath"
	"testing"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/geom"
	"tilecraft.ai/internal/sim/tuning"
	world "tilecraft.ai/internal/sim/world"
)

// Harness is a small black-box test helper for driving a world via exported APIs:
// - Spawn/Ore/Tube build deterministic preconditions
// - Step/StepN advance the world through StepOnce()
// - Events collects everything emitted since the harness was created
// - CheckInvariants asserts grid consistency after a tick
//
// It avoids touching world internals so tests can live outside the world package.
type Harness struct {
	T    testing.TB
	Cats *catalogs.Catalogs
	W    *world.World

	P1 *world.Player
	P2 *world.Player

	Digest string
	events []protocol.Event
}

// ConfigDir locates the repository's configs directory from any package.
func ConfigDir(t testing.TB) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "configs")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("configs dir not found")
		}
		dir = parent
	}
}

func LoadCatalogs(t testing.TB) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load(ConfigDir(t))
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	return cats
}

// NewHarness builds a width x height world with default tuning and two players.
func NewHarness(t testing.TB, width, height int) *Harness {
	t.Helper()
	return NewHarnessWithConfig(t, world.WorldConfig{ID: "TEST", Width: width, Height: height, Tuning: tuning.Defaults()})
}

func NewHarnessWithConfig(t testing.TB, cfg world.WorldConfig) *Harness {
	t.Helper()
	cats := LoadCatalogs(t)
	w, err := world.New(cfg, cats)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	h := &Harness{
		T:    t,
		Cats: cats,
		W:    w,
		P1:   world.NewPlayer(1, "Eden", 120),
		P2:   world.NewPlayer(2, "Plymouth", 0),
	}
	w.AddPlayer(h.P1)
	w.AddPlayer(h.P2)
	return h
}

// Spawn places a unit owned by owner with its footprint anchored at (x, y).
func (h *Harness) Spawn(typeName string, owner *world.Player, x, y int) *world.Unit {
	h.T.Helper()
	u, err := h.W.Spawn(typeName, owner, geom.Pos(x, y))
	if err != nil {
		h.T.Fatalf("spawn %s at (%d,%d): %v", typeName, x, y, err)
	}
	return u
}

// SpawnFacing is Spawn followed by a direction change.
func (h *Harness) SpawnFacing(typeName string, owner *world.Player, x, y int, dir geom.Direction) *world.Unit {
	h.T.Helper()
	u := h.Spawn(typeName, owner, x, y)
	u.SetDirection(dir)
	return u
}

func (h *Harness) Ore(x, y int, res world.ResourceType, load int) {
	h.W.Map().PutOre(geom.Pos(x, y), world.Ore{Resource: res, Load: load})
}

func (h *Harness) Tube(x, y int) {
	h.W.Map().PutTube(geom.Pos(x, y))
}

// Assign gives u a task now and fails the test on error.
func (h *Harness) Assign(u *world.Unit, task world.Task) {
	h.T.Helper()
	if err := u.AssignNow(task); err != nil {
		h.T.Fatalf("assign %s to unit %d: %v", task.Kind(), u.ID, err)
	}
}

// Step advances one tick and checks grid invariants.
func (h *Harness) Step(orders ...world.OrderEnvelope) {
	h.T.Helper()
	_, h.Digest = h.W.StepOnce(orders...)
	h.events = append(h.events, h.W.Events()...)
	h.CheckInvariants()
}

func (h *Harness) StepN(n int) {
	h.T.Helper()
	for i := 0; i < n; i++ {
		h.Step()
	}
}

// StepUntil steps until cond holds, failing after max ticks. It returns the
// number of ticks taken.
func (h *Harness) StepUntil(max int, cond func() bool) int {
	h.T.Helper()
	for i := 1; i <= max; i++ {
		h.Step()
		if cond() {
			return i
		}
	}
	h.T.Fatalf("condition not reached after %d ticks", max)
	return 0
}

// Events returns every event recorded so far.
func (h *Harness) Events() []protocol.Event { return h.events }

func (h *Harness) CountEvents(typ string) int {
	n := 0
	for _, e := range h.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (h *Harness) HasSound(cue string) bool {
	for _, e := range h.events {
		if e.Type == "SOUND" && e.Detail == cue {
			return true
		}
	}
	return false
}

// CheckInvariants verifies that every placed unit occupies exactly its
// recorded cells and that no reservation survived the tick.
func (h *Harness) CheckInvariants() {
	h.T.Helper()
	m := h.W.Map()
	if n := m.ReservationCount(); n != 0 {
		h.T.Fatalf("tick %d: %d reservation(s) survived the tick", h.W.CurrentTick(), n)
	}
	owned := map[geom.Position]*world.Unit{}
	for _, u := range m.Units() {
		if u.IsDead() {
			h.T.Fatalf("dead unit %d still on map", u.ID)
		}
		for _, c := range u.Occupied().Cells() {
			if got := m.GetUnit(c); got != u {
				h.T.Fatalf("unit %d missing from its cell %s", u.ID, c)
			}
			owned[c] = u
		}
	}
	b := m.Bounds()
	for _, c := range b.Cells() {
		if got := m.GetUnit(c); got != nil && owned[c] != got {
			h.T.Fatalf("ghost occupancy at %s by unit %d", c, got.ID)
		}
	}
}
