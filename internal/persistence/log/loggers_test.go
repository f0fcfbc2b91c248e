package log

import (
	"testing"
	"time"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/world"
)

func TestTickLogger_WritesAndReadsBack(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	for tick := uint64(0); tick < 5; tick++ {
		e := world.TickLogEntry{Tick: tick, Digest: "d"}
		if tick == 2 {
			e.Orders = []world.RecordedOrder{{PlayerID: 1, Order: "MOVE"}}
			e.Events = []protocol.Event{{Type: "TASK_DONE", Unit: 3, Task: "STEER"}}
		}
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	segs, err := Segments(dir)
	if err != nil || len(segs) != 1 {
		t.Fatalf("segments=%v err=%v", segs, err)
	}
	var got []world.TickLogEntry
	if err := ReadTicks(segs[0], func(e world.TickLogEntry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("ReadTicks: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("entries=%d", len(got))
	}
	if got[2].Orders[0].Order != "MOVE" || got[2].Events[0].Task != "STEER" {
		t.Fatalf("entry 2 = %+v", got[2])
	}
}

func TestSegmentWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewSegmentWriter(dir+"/ticks", "ticks")
	clock := time.Date(2026, 1, 2, 3, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	if err := w.Write(world.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	clock = clock.Add(2 * time.Minute)
	if err := w.Write(world.TickLogEntry{Tick: 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	segs, err := Segments(dir)
	if err != nil || len(segs) != 2 {
		t.Fatalf("segments=%v err=%v", segs, err)
	}
}
