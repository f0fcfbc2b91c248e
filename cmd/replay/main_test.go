package main

import (
	"path/filepath"
	"strings"
	"testing"

	persistlog "tilecraft.ai/internal/persistence/log"
	"tilecraft.ai/internal/sim/scenario"
	"tilecraft.ai/internal/sim/tuning"
	"tilecraft.ai/internal/sim/world"
	"tilecraft.ai/internal/sim/worldtest"
)

func newFactoryWorld(t *testing.T) (*world.World, []world.OrderEnvelope) {
	t.Helper()
	scn, err := scenario.Load(filepath.Join(worldtest.ConfigDir(t), "scenarios", "factory.yaml"))
	if err != nil {
		t.Fatalf("scenario.Load: %v", err)
	}
	w, err := world.New(scn.WorldConfig("REPLAY", tuning.Defaults()), worldtest.LoadCatalogs(t))
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	envs, err := scn.Apply(w)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return w, envs
}

func record(t *testing.T, dir string, ticks int) {
	t.Helper()
	w, envs := newFactoryWorld(t)
	l := persistlog.NewTickLogger(dir)
	w.SetTickLogger(l)
	w.StepOnce(envs...)
	for i := 1; i < ticks; i++ {
		w.StepOnce()
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestVerify_ReplaysRecordedRun(t *testing.T) {
	dir := t.TempDir()
	record(t, dir, 60)

	w, _ := newFactoryWorld(t)
	checked, err := verify(w, dir, 0)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if checked != 60 {
		t.Fatalf("checked=%d want 60", checked)
	}

	w, _ = newFactoryWorld(t)
	if checked, err := verify(w, dir, 9); err != nil || checked != 10 {
		t.Fatalf("to_tick verify checked=%d err=%v", checked, err)
	}
}

func TestVerify_DetectsDivergence(t *testing.T) {
	dir := t.TempDir()
	record(t, dir, 20)

	w, _ := newFactoryWorld(t)
	for _, u := range w.Units() {
		if u.Type.Name == "eCargoTruck" {
			w.Kill(u)
		}
	}
	_, err := verify(w, dir, 0)
	if err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Fatalf("expected digest mismatch, got %v", err)
	}
}
