// Package ws serves the world over WebSocket: every session receives the
// per-tick FRAME stream, and sessions bound to a player may send ORDERs.
package ws

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/orders"
	"tilecraft.ai/internal/sim/world"
)

const (
	frameQueue   = 8
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
	orderTimeout = 5 * time.Second
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Welcome describes the world to a joining session.
func (s *Server) Welcome(playerID int) protocol.WelcomeMsg {
	cfg := s.world.Config()
	tb, _ := json.Marshal(cfg.Tuning)
	sum := sha256.Sum256(tb)
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		WorldID:         cfg.ID,
		PlayerID:        playerID,
		WorldParams: protocol.WorldParams{
			TickRateHz: cfg.Tuning.TickRateHz,
			Width:      cfg.Width,
			Height:     cfg.Height,
		},
		Catalogs: protocol.CatalogDigests{
			UnitsDigest:  s.world.Catalogs().Digest,
			TuningDigest: hex.EncodeToString(sum[:]),
		},
	}
}

// BootstrapHandler returns the WELCOME payload over plain HTTP.
func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.Welcome(0))
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		playerID, ok := s.handshake(conn)
		if !ok {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sessionID := fmt.Sprintf("S%d", s.nextID.Add(1))
		frames := make(chan []byte, frameQueue)
		replies := make(chan []byte, 16)
		s.world.JoinObserver(world.ObserverJoinRequest{SessionID: sessionID, FrameOut: frames})
		defer s.world.LeaveObserver(sessionID)
		s.log.Printf("session %s joined (player %d)", sessionID, playerID)

		// Writer goroutine. Order results go out ahead of frames.
		go func() {
			defer cancel()
			for {
				var b []byte
				select {
				case <-ctx.Done():
					return
				case b = <-replies:
				default:
					select {
					case <-ctx.Done():
						return
					case b = <-replies:
					case b = <-frames:
					}
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}()

		reply := func(res protocol.OrderResultMsg) {
			b, _ := json.Marshal(res)
			select {
			case replies <- b:
			case <-ctx.Done():
			}
		}

		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			s.handleMessage(ctx, playerID, msg, reply)
		}
		s.log.Printf("session %s left", sessionID)
	}
}

func (s *Server) handleMessage(ctx context.Context, playerID int, msg []byte, reply func(protocol.OrderResultMsg)) {
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeOrder {
		reply(failure("", protocol.ErrProtoBadRequest, "expected ORDER"))
		return
	}
	order, err := protocol.DecodeOrder(msg)
	if err != nil {
		reply(failure("", protocol.ErrBadRequest, err.Error()))
		return
	}
	if order.ProtocolVersion != protocol.Version {
		reply(failure(order.ReqID, protocol.ErrProtoBadRequest, "bad protocol_version"))
		return
	}
	if playerID == 0 {
		reply(failure(order.ReqID, protocol.ErrNoPermission, "observer sessions cannot order"))
		return
	}

	result := make(chan error, 1)
	subCtx, cancel := context.WithTimeout(ctx, time.Second)
	err = s.world.Submit(subCtx, orders.Envelope(playerID, order, result))
	cancel()
	if err != nil {
		reply(failure(order.ReqID, protocol.ErrWorldBusy, "world inbox full"))
		return
	}
	go func() {
		select {
		case err := <-result:
			if err != nil {
				reply(failure(order.ReqID, orders.Code(err), err.Error()))
				return
			}
			reply(protocol.OrderResultMsg{Type: protocol.TypeOrderResult, ProtocolVersion: protocol.Version, ReqID: order.ReqID, OK: true})
		case <-time.After(orderTimeout):
			reply(failure(order.ReqID, protocol.ErrWorldBusy, "order not applied in time"))
		case <-ctx.Done():
		}
	}()
}

func failure(reqID, code, message string) protocol.OrderResultMsg {
	return protocol.OrderResultMsg{
		Type:            protocol.TypeOrderResult,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		Code:            code,
		Message:         message,
	}
}

func (s *Server) handshake(conn *websocket.Conn) (playerID int, ok bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return 0, false
	}
	reject := func(reason string) (int, bool) {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
		return 0, false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		return reject("expected HELLO")
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return reject("bad HELLO")
	}
	if hello.ProtocolVersion != protocol.Version {
		return reject("bad protocol_version")
	}
	if hello.PlayerID != 0 {
		if _, found := s.world.Player(hello.PlayerID); !found {
			return reject("unknown player")
		}
	}
	if err := writeJSON(conn, s.Welcome(hello.PlayerID)); err != nil {
		return 0, false
	}
	return hello.PlayerID, true
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
