package world

import (
	"encoding/json"

	"tilecraft.ai/internal/protocol"
)

// ObserverJoinRequest registers a read-only session that receives one
// FRAME message per tick. FrameOut should be buffered; a slow reader loses
// older frames, never the newest.
type ObserverJoinRequest struct {
	SessionID string
	FrameOut  chan []byte
}

func (w *World) JoinObserver(req ObserverJoinRequest) { w.observerJoin <- req }
func (w *World) LeaveObserver(id string)              { w.observerLeave <- id }

// Frame builds the FRAME message for the current state.
func (w *World) Frame(tick uint64, digest string) protocol.FrameMsg {
	msg := protocol.FrameMsg{
		Type:            protocol.TypeFrame,
		ProtocolVersion: protocol.Version,
		WorldID:         w.cfg.ID,
		Tick:            tick,
		Digest:          digest,
		Units:           []protocol.UnitState{},
		Events:          append([]protocol.Event(nil), w.events...),
	}
	for _, u := range w.units {
		if u.dead || !u.placed {
			continue
		}
		msg.Units = append(msg.Units, unitState(u))
	}
	for _, p := range w.Players() {
		ps := protocol.PlayerState{ID: p.ID, Name: p.Name}
		if len(p.resources) > 0 {
			ps.Resources = map[string]int{}
			for k, v := range p.resources {
				ps.Resources[string(k)] = v
			}
		}
		msg.Players = append(msg.Players, ps)
	}
	return msg
}

func unitState(u *Unit) protocol.UnitState {
	s := protocol.UnitState{
		ID:       u.ID,
		Type:     u.Type.Name,
		Pos:      u.pos.ToArray(),
		Activity: string(u.activity),
		Frame:    u.frame,
		HP:       u.hp,
		Health:   string(u.HealthBracket()),
		Cargo:    u.cargo.String(),
		Queue:    len(u.queue),
	}
	if u.dir.Valid() {
		s.Dir = u.dir.String()
	}
	if u.owner != nil {
		s.Owner = u.owner.ID
	}
	if t := u.CurrentTask(); t != nil {
		s.Task = t.Kind()
	}
	return s
}

func (w *World) publishFrame(tick uint64, digest string) {
	if len(w.observers) == 0 {
		return
	}
	b, err := json.Marshal(w.Frame(tick, digest))
	if err != nil {
		w.logf("tick %d: frame encode: %v", tick, err)
		return
	}
	for _, ch := range w.observers {
		sendLatest(ch, b)
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
