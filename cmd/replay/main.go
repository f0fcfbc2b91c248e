package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "tilecraft.ai/internal/persistence/log"
	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/orders"
	"tilecraft.ai/internal/sim/scenario"
	"tilecraft.ai/internal/sim/tuning"
	"tilecraft.ai/internal/sim/world"
)

func main() {
	var (
		worldDir     = flag.String("world_dir", "", "world data dir containing ticks/ (e.g. data/worlds/world_1)")
		scenarioPath = flag.String("scenario", "./configs/scenarios/factory.yaml", "scenario the run started from")
		configDir    = flag.String("configs", "./configs", "config directory")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		toTick       = flag.Uint64("to_tick", 0, "stop after this tick (inclusive, optional)")
	)
	flag.Parse()

	if *worldDir == "" {
		fmt.Fprintln(os.Stderr, "missing -world_dir")
		os.Exit(2)
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	scn, err := scenario.Load(*scenarioPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load scenario:", err)
		os.Exit(1)
	}
	w, err := world.New(scn.WorldConfig(filepath.Base(*worldDir), tune), cats)
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}
	// The scenario's own orders are in the tick log.
	if _, err := scn.Apply(w); err != nil {
		fmt.Fprintln(os.Stderr, "apply scenario:", err)
		os.Exit(1)
	}

	checked, err := verify(w, *worldDir, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d ticks\n", checked)
}

var errDone = errors.New("done")

// verify re-runs every logged tick against w and compares state digests.
func verify(w *world.World, worldDir string, toTick uint64) (checked int, err error) {
	segs, err := persistlog.Segments(worldDir)
	if err != nil {
		return 0, err
	}
	if len(segs) == 0 {
		return 0, fmt.Errorf("no tick log under %s", worldDir)
	}
	for _, path := range segs {
		err := persistlog.ReadTicks(path, func(e world.TickLogEntry) error {
			if toTick != 0 && e.Tick > toTick {
				return errDone
			}
			if e.Tick != w.CurrentTick() {
				return fmt.Errorf("tick gap: want=%d got=%d (file=%s)", w.CurrentTick(), e.Tick, filepath.Base(path))
			}
			envs := make([]world.OrderEnvelope, 0, len(e.Orders))
			for _, o := range e.Orders {
				if o.Msg == nil {
					return fmt.Errorf("tick %d: order %s has no recorded message", e.Tick, o.Order)
				}
				envs = append(envs, orders.Envelope(o.PlayerID, *o.Msg, nil))
			}
			_, digest := w.StepOnce(envs...)
			checked++
			if digest != e.Digest {
				return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", e.Tick, digest, e.Digest)
			}
			return nil
		})
		if errors.Is(err, errDone) {
			return checked, nil
		}
		if err != nil {
			return checked, err
		}
	}
	return checked, nil
}
