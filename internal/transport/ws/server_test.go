package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/geom"
	"tilecraft.ai/internal/sim/tuning"
	"tilecraft.ai/internal/sim/world"
	"tilecraft.ai/internal/sim/worldtest"
)

type fixture struct {
	w     *world.World
	truck *world.Unit
	url   string
}

func startServer(t *testing.T) fixture {
	t.Helper()
	tun := tuning.Defaults()
	tun.TickRateHz = 50
	w, err := world.New(world.WorldConfig{ID: "WS", Width: 12, Height: 12, Tuning: tun}, worldtest.LoadCatalogs(t))
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	p1 := world.NewPlayer(1, "Eden", 120)
	w.AddPlayer(p1)
	truck, err := w.Spawn("eCargoTruck", p1, geom.Pos(1, 1))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	s := NewServer(w, log.New(io.Discard, "", 0))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return fixture{w: w, truck: truck, url: "ws" + strings.TrimPrefix(srv.URL, "http")}
}

func dial(t *testing.T, url string, playerID int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "test", PlayerID: playerID})
	var welcome protocol.WelcomeMsg
	readInto(t, conn, &welcome)
	if welcome.Type != protocol.TypeWelcome || welcome.WorldID != "WS" || welcome.PlayerID != playerID {
		t.Fatalf("welcome=%+v", welcome)
	}
	if welcome.WorldParams.Width != 12 || welcome.Catalogs.UnitsDigest == "" {
		t.Fatalf("welcome params=%+v catalogs=%+v", welcome.WorldParams, welcome.Catalogs)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, _ := json.Marshal(v)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readInto(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
}

// awaitResult skips frames until the ORDER_RESULT arrives.
func awaitResult(t *testing.T, conn *websocket.Conn) protocol.OrderResultMsg {
	t.Helper()
	for i := 0; i < 200; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		base, _ := protocol.DecodeBase(b)
		if base.Type != protocol.TypeOrderResult {
			continue
		}
		var res protocol.OrderResultMsg
		if err := json.Unmarshal(b, &res); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return res
	}
	t.Fatalf("no ORDER_RESULT")
	return protocol.OrderResultMsg{}
}

func TestServer_OrderAndFrames(t *testing.T) {
	f := startServer(t)
	conn := dial(t, f.url, 1)

	send(t, conn, protocol.OrderMsg{
		Type: protocol.TypeOrder, ProtocolVersion: protocol.Version, ReqID: "r1",
		Order: "MOVE", Units: []int{f.truck.ID}, Pos: &[2]int{4, 1},
	})
	res := awaitResult(t, conn)
	if !res.OK || res.ReqID != "r1" {
		t.Fatalf("result=%+v", res)
	}

	for i := 0; i < 200; i++ {
		var frame protocol.FrameMsg
		readInto(t, conn, &frame)
		if frame.Type != protocol.TypeFrame {
			continue
		}
		if len(frame.Units) != 1 {
			t.Fatalf("frame units=%d", len(frame.Units))
		}
		if frame.Units[0].Pos == [2]int{4, 1} {
			return
		}
	}
	t.Fatalf("truck never reached (4,1) in the frame stream")
}

func TestServer_RejectsOrders(t *testing.T) {
	f := startServer(t)

	observer := dial(t, f.url, 0)
	send(t, observer, protocol.OrderMsg{Type: protocol.TypeOrder, ProtocolVersion: protocol.Version, ReqID: "o1", Order: "STOP", Units: []int{f.truck.ID}})
	if res := awaitResult(t, observer); res.OK || res.Code != protocol.ErrNoPermission {
		t.Fatalf("observer result=%+v", res)
	}

	player := dial(t, f.url, 1)
	send(t, player, map[string]any{"type": "ORDER", "protocol_version": protocol.Version, "order": "FLY"})
	if res := awaitResult(t, player); res.OK || res.Code != protocol.ErrBadRequest {
		t.Fatalf("schema result=%+v", res)
	}
	send(t, player, protocol.OrderMsg{Type: protocol.TypeOrder, ProtocolVersion: protocol.Version, ReqID: "p2", Order: "STOP", Units: []int{99}})
	if res := awaitResult(t, player); res.OK || res.Code != protocol.ErrInvalidTarget || res.ReqID != "p2" {
		t.Fatalf("ghost unit result=%+v", res)
	}
}

func TestServer_HandshakeRejectsUnknownPlayer(t *testing.T) {
	f := startServer(t)
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, PlayerID: 7})
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy close, got %v", err)
	}
}
