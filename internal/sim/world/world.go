package world

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/geom"
)

// OrderEnvelope carries one player order into the world goroutine. Apply
// runs at the start of the next tick; its error is delivered on Result.
type OrderEnvelope struct {
	PlayerID int
	Order    string
	Apply    func(w *World) error
	Result   chan error

	// Msg is the wire form, recorded in the tick log for replays.
	Msg *protocol.OrderMsg
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	Tick   uint64           `json:"tick"`
	Orders []RecordedOrder  `json:"orders,omitempty"`
	Events []protocol.Event `json:"events,omitempty"`
	Digest string           `json:"digest"`
}

type RecordedOrder struct {
	PlayerID int                `json:"player_id"`
	Order    string             `json:"order"`
	Err      string             `json:"err,omitempty"`
	Msg      *protocol.OrderMsg `json:"msg,omitempty"`
}

// SoundSink plays a named cue. Play must not block the simulation.
type SoundSink interface {
	Play(cue string)
}

type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs
	logger   *log.Logger

	tick atomic.Uint64

	m       *Map
	units   []*Unit
	nextID  int
	players map[int]*Player

	effects   []scheduledEffect
	effectSeq int

	events []protocol.Event
	orders []RecordedOrder

	sound      SoundSink
	tickLogger TickLogger

	inbox         chan OrderEnvelope
	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
	observers     map[string]chan []byte
	stop          chan struct{}
}

func New(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("world: nil catalogs")
	}
	cfg.applyDefaults()
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, err
	}
	w := &World{
		cfg:           cfg,
		catalogs:      cats,
		logger:        log.New(io.Discard, "", 0),
		m:             NewMap(cfg.Width, cfg.Height),
		nextID:        1,
		players:       map[int]*Player{},
		inbox:         make(chan OrderEnvelope, cfg.InboxSize),
		observerJoin:  make(chan ObserverJoinRequest, 16),
		observerLeave: make(chan string, 16),
		observers:     map[string]chan []byte{},
		stop:          make(chan struct{}),
	}
	return w, nil
}

func (w *World) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	w.logger = l
}

func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }
func (w *World) SetSoundSink(s SoundSink)   { w.sound = s }

func (w *World) ID() string                   { return w.cfg.ID }
func (w *World) Config() WorldConfig          { return w.cfg }
func (w *World) Catalogs() *catalogs.Catalogs { return w.catalogs }
func (w *World) Map() *Map                    { return w.m }
func (w *World) CurrentTick() uint64          { return w.tick.Load() }

func (w *World) logf(format string, args ...any) {
	w.logger.Printf(format, args...)
}

// Fatalf reports corrupted state. The simulation cannot continue past it.
func (w *World) Fatalf(format string, args ...any) {
	err := &InvariantError{Tick: w.CurrentTick(), Err: fmt.Errorf(format, args...)}
	w.logf("%v", err)
	panic(err)
}

// NewUnit creates an unplaced unit of the named type.
func (w *World) NewUnit(typeName string, owner *Player) (*Unit, error) {
	t, ok := w.catalogs.Units.Get(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnitType, typeName)
	}
	u := &Unit{
		ID:       w.nextID,
		Type:     t,
		world:    w,
		owner:    owner,
		dir:      geom.S,
		activity: ActivityStill,
		hp:       t.MaxHP,
	}
	if t.IsStructure() || t.IsGuardPost() {
		u.dir = geom.None
	}
	w.nextID++
	w.units = append(w.units, u)
	return u, nil
}

// Place puts u on the map with its footprint anchored at pos.
func (w *World) Place(u *Unit, pos geom.Position) error {
	if u.dead {
		return fmt.Errorf("%w: unit %d is dead", ErrCannotPlace, u.ID)
	}
	return w.m.PutUnit(u, pos)
}

// Spawn creates a unit and places it. Nothing is created when placement fails.
func (w *World) Spawn(typeName string, owner *Player, pos geom.Position) (*Unit, error) {
	u, err := w.NewUnit(typeName, owner)
	if err != nil {
		return nil, err
	}
	if err := w.Place(u, pos); err != nil {
		w.forget(u)
		return nil, err
	}
	return u, nil
}

// Unit returns a live unit by id.
func (w *World) Unit(id int) (*Unit, bool) {
	i := sort.Search(len(w.units), func(i int) bool { return w.units[i].ID >= id })
	if i < len(w.units) && w.units[i].ID == id && !w.units[i].dead {
		return w.units[i], true
	}
	return nil, false
}

// Units lists live units ordered by id, placed or not.
func (w *World) Units() []*Unit {
	out := make([]*Unit, 0, len(w.units))
	for _, u := range w.units {
		if !u.dead {
			out = append(out, u)
		}
	}
	return out
}

// Discard drops a unit that never made it onto the map.
func (w *World) Discard(u *Unit) {
	if u == nil || u.placed {
		return
	}
	u.dead = true
	w.forget(u)
}

func (w *World) forget(u *Unit) {
	for i, x := range w.units {
		if x == u {
			w.units = append(w.units[:i], w.units[i+1:]...)
			return
		}
	}
}

// Emit records an event for the current tick.
func (w *World) Emit(e protocol.Event) {
	e.Tick = w.CurrentTick()
	w.events = append(w.events, e)
}

// PlaySound records a sound cue and hands it to the sink.
func (w *World) PlaySound(cue string) {
	w.Emit(protocol.Event{Type: "SOUND", Detail: cue})
	if w.sound != nil {
		w.sound.Play(cue)
	}
}

// Submit queues an order for the next tick.
func (w *World) Submit(ctx context.Context, env OrderEnvelope) error {
	select {
	case w.inbox <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.Tuning.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []OrderEnvelope
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.observerJoin:
			w.observers[req.SessionID] = req.FrameOut
		case id := <-w.observerLeave:
			delete(w.observers, id)
		case env := <-w.inbox:
			pending = append(pending, env)
		case <-ticker.C:
			w.step(pending)
			pending = pending[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick with the same ordering as
// Run. It is meant for tests and replays.
func (w *World) StepOnce(orders ...OrderEnvelope) (tick uint64, digest string) {
	tick = w.tick.Load()
	digest = w.step(orders)
	return tick, digest
}

func (w *World) step(orders []OrderEnvelope) string {
	nowTick := w.tick.Load()
	w.events = w.events[:0]
	w.orders = w.orders[:0]

	for _, env := range orders {
		err := env.Apply(w)
		rec := RecordedOrder{PlayerID: env.PlayerID, Order: env.Order, Msg: env.Msg}
		if err != nil {
			rec.Err = err.Error()
			w.logf("tick %d: order %s from player %d rejected: %v", nowTick, env.Order, env.PlayerID, err)
		}
		w.orders = append(w.orders, rec)
		if env.Result != nil {
			select {
			case env.Result <- err:
			default:
			}
		}
	}

	w.runEffects(nowTick)

	for _, u := range w.Units() {
		if u.dead || !u.placed {
			continue
		}
		u.stepDepth = 0
		u.Step(w)
	}

	if left := w.m.sweepReservations(); len(left) > 0 {
		w.logf("tick %d: cleared %d abandoned reservation(s)", nowTick, len(left))
	}

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		entry := TickLogEntry{
			Tick:   nowTick,
			Orders: append([]RecordedOrder(nil), w.orders...),
			Events: append([]protocol.Event(nil), w.events...),
			Digest: digest,
		}
		if err := w.tickLogger.WriteTick(entry); err != nil {
			w.logf("tick %d: tick log: %v", nowTick, err)
		}
	}
	w.publishFrame(nowTick, digest)

	w.tick.Add(1)
	return digest
}

// Events returns the events recorded during the last completed tick.
func (w *World) Events() []protocol.Event {
	return append([]protocol.Event(nil), w.events...)
}
