package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"tilecraft.ai/internal/audio"
	"tilecraft.ai/internal/persistence/indexdb"
	persistlog "tilecraft.ai/internal/persistence/log"
	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/scenario"
	"tilecraft.ai/internal/sim/tuning"
	"tilecraft.ai/internal/sim/world"
	"tilecraft.ai/internal/transport/ws"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		worldID      = flag.String("world", "world_1", "world id")
		configDir    = flag.String("configs", "./configs", "config directory")
		scenarioPath = flag.String("scenario", "", "scenario file (default: <configs>/scenarios/factory.yaml)")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite tick index")
		useSpeaker   = flag.Bool("audio", false, "play sound cues on the default audio device")
		ticks        = flag.Int("ticks", 0, "run this many ticks headless as fast as possible, then exit (0 serves forever)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	sp := strings.TrimSpace(*scenarioPath)
	if sp == "" {
		sp = filepath.Join(*configDir, "scenarios", "factory.yaml")
	}
	scn, err := scenario.Load(sp)
	if err != nil {
		logger.Fatalf("load scenario: %v", err)
	}

	w, err := world.New(scn.WorldConfig(*worldID, tune), cats)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	w.SetLogger(log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds))
	initial, err := scn.Apply(w)
	if err != nil {
		logger.Fatalf("apply scenario %s: %v", scn.Name, err)
	}
	logger.Printf("scenario %s: %dx%d, %d units, %d orders", scn.Name, scn.Width, scn.Height, len(w.Units()), len(initial))

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}
	tickLog := persistlog.NewTickLogger(worldDir)
	defer tickLog.Close()

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index", "world.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}
	w.SetTickLogger(multiTickLogger{tickLog, idx})

	ctx, cancel := signalContext()
	defer cancel()

	sound, err := audio.New(audio.Options{Speaker: *useSpeaker, Logger: log.New(os.Stdout, "[audio] ", log.LstdFlags)})
	if err != nil {
		logger.Printf("audio disabled: %v", err)
		sound, _ = audio.New(audio.Options{})
	}
	go sound.Run(ctx)
	w.SetSoundSink(sound)

	if *ticks > 0 {
		start := time.Now()
		var digest string
		_, digest = w.StepOnce(initial...)
		for i := 1; i < *ticks && ctx.Err() == nil; i++ {
			_, digest = w.StepOnce()
		}
		logger.Printf("ran %d ticks in %s, digest=%s", w.CurrentTick(), time.Since(start).Round(time.Millisecond), digest)
		return
	}

	go func() {
		for _, env := range initial {
			if err := w.Submit(ctx, env); err != nil {
				return
			}
		}
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	wsSrv := ws.NewServer(w, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds))
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, *worldID, w.CurrentTick(), idx, sound)
	})
	mux.HandleFunc("/v1/bootstrap", wsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func writeMetrics(rw http.ResponseWriter, worldID string, tick uint64, idx *indexdb.SQLiteIndex, sound *audio.Player) {
	fmt.Fprintf(rw, "# HELP tilecraft_world_tick Current world tick.\n")
	fmt.Fprintf(rw, "# TYPE tilecraft_world_tick gauge\n")
	fmt.Fprintf(rw, "tilecraft_world_tick{world=%q} %d\n", worldID, tick)

	played, dropped := sound.Stats()
	fmt.Fprintf(rw, "# HELP tilecraft_sound_cues_total Sound cues by outcome.\n")
	fmt.Fprintf(rw, "# TYPE tilecraft_sound_cues_total counter\n")
	fmt.Fprintf(rw, "tilecraft_sound_cues_total{world=%q,outcome=%q} %d\n", worldID, "played", played)
	fmt.Fprintf(rw, "tilecraft_sound_cues_total{world=%q,outcome=%q} %d\n", worldID, "dropped", dropped)

	if idx == nil {
		return
	}
	st := idx.Stats()
	fmt.Fprintf(rw, "# HELP tilecraft_index_queue_depth Tick index writer backlog.\n")
	fmt.Fprintf(rw, "# TYPE tilecraft_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "tilecraft_index_queue_depth{world=%q} %d\n", worldID, st.QueueDepth)
	fmt.Fprintf(rw, "# HELP tilecraft_index_dropped_total Ticks the index dropped.\n")
	fmt.Fprintf(rw, "# TYPE tilecraft_index_dropped_total counter\n")
	fmt.Fprintf(rw, "tilecraft_index_dropped_total{world=%q} %d\n", worldID, st.DropTickTotal)
}

type multiTickLogger struct {
	log *persistlog.TickLogger
	idx *indexdb.SQLiteIndex
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	err := m.log.WriteTick(entry)
	if m.idx != nil {
		_ = m.idx.WriteTick(entry)
	}
	return err
}
