package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"fleamarket.gg/internal/protocol"
	"fleamarket.gg/internal/transport/router"
)

const outQueue = 32

type Server struct {
	router *router.Router
	log    *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(r *router.Router, logger *log.Logger) *Server {
	s := &Server{
		router: r,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

// Handler upgrades the connection and answers every request frame with a
// reply frame of the same type. A connection may serve several sessions;
// each frame names its own.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan protocol.Reply, outQueue)

		// Writer goroutine.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case reply := <-out:
					if err := writeJSON(conn, reply); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. Requests are handled in order per connection.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			reply := s.handle(ctx, msg)
			select {
			case out <- reply:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
		<-done
	}
}

func (s *Server) handle(ctx context.Context, msg []byte) protocol.Reply {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.Reply{Type: protocol.TypeError, Code: protocol.ErrProtoBadRequest, Message: "malformed frame"}
	}
	if base.ProtocolVersion != "" && base.ProtocolVersion != protocol.Version {
		return protocol.Reply{Type: base.Type, Code: protocol.ErrProtoBadRequest, Message: "bad protocol_version"}
	}
	if err := protocol.ValidateEnvelope(msg); err != nil {
		return protocol.Reply{Type: base.Type, Code: protocol.ErrProtoBadRequest, Message: err.Error()}
	}
	var env protocol.Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return protocol.Reply{Type: base.Type, Code: protocol.ErrProtoBadRequest, Message: err.Error()}
	}
	return s.router.Dispatch(ctx, env)
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
