// Package httpapi serves the market over JSON HTTP routes.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"fleamarket.gg/internal/protocol"
	"fleamarket.gg/internal/transport/router"
)

// SessionHeader carries the profile id of the caller.
const SessionHeader = "X-Session-Id"

const maxBody = 1 << 20

var routes = []struct {
	path    string
	method  string
	msgType string
}{
	{"/client/ragfair/find", http.MethodPost, protocol.TypeFind},
	{"/client/ragfair/offer/findbyid", http.MethodPost, protocol.TypeFindByID},
	{"/client/ragfair/itemMarketPrice", http.MethodPost, protocol.TypeMarketPrice},
	{"/client/ragfair/add", http.MethodPost, protocol.TypeAddOffer},
	{"/client/ragfair/remove", http.MethodPost, protocol.TypeRemoveOffer},
	{"/client/ragfair/extend", http.MethodPost, protocol.TypeExtendOffer},
	{"/client/ragfair/offerfees", http.MethodPost, protocol.TypeOfferFees},
	{"/client/ragfair/prices", http.MethodGet, protocol.TypePrices},
}

// Admin is the operator surface behind /admin/v1.
type Admin interface {
	State(ctx context.Context) (any, error)
	Sweep(ctx context.Context) (any, error)
	Snapshot(ctx context.Context) (string, error)
}

type Server struct {
	router *router.Router
	admin  Admin
	log    *log.Logger
}

// NewServer builds the HTTP surface; admin may be nil to leave the admin
// routes unregistered.
func NewServer(r *router.Router, admin Admin, logger *log.Logger) *Server {
	return &Server{router: r, admin: admin, log: logger}
}

func (s *Server) Register(mux *http.ServeMux) {
	for _, rt := range routes {
		mux.HandleFunc(rt.path, s.handle(rt.method, rt.msgType))
	}
	if s.admin == nil {
		return
	}
	mux.HandleFunc("/admin/v1/state", s.adminOnly(http.MethodGet, func(ctx context.Context) (any, error) {
		return s.admin.State(ctx)
	}))
	mux.HandleFunc("/admin/v1/sweep", s.adminOnly(http.MethodPost, func(ctx context.Context) (any, error) {
		return s.admin.Sweep(ctx)
	}))
	mux.HandleFunc("/admin/v1/snapshot", s.adminOnly(http.MethodPost, func(ctx context.Context) (any, error) {
		path, err := s.admin.Snapshot(ctx)
		return map[string]any{"ok": err == nil, "path": path}, err
	}))
}

func (s *Server) handle(method, msgType string) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var body []byte
		if method == http.MethodPost {
			b, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxBody))
			if err != nil {
				writeJSON(rw, http.StatusRequestEntityTooLarge, protocol.Reply{Type: msgType, Code: protocol.ErrProtoBadRequest, Message: err.Error()})
				return
			}
			body = b
		}
		env := protocol.Envelope{
			Type:            msgType,
			ProtocolVersion: protocol.Version,
			RequestID:       r.Header.Get("X-Request-Id"),
			SessionID:       strings.TrimSpace(r.Header.Get(SessionHeader)),
			Body:            body,
		}
		reply := s.router.Dispatch(r.Context(), env)
		writeJSON(rw, statusOf(reply), reply)
	}
}

func (s *Server) adminOnly(method string, fn func(ctx context.Context) (any, error)) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		out, err := fn(ctx)
		if err != nil {
			s.log.Printf("admin %s: %v", r.URL.Path, err)
			writeJSON(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error(), "result": out})
			return
		}
		writeJSON(rw, http.StatusOK, out)
	}
}

func statusOf(reply protocol.Reply) int {
	if reply.OK {
		return http.StatusOK
	}
	switch reply.Code {
	case protocol.ErrNoSession:
		return http.StatusUnauthorized
	case protocol.ErrInvalidTarget, protocol.ErrUnknownType:
		return http.StatusNotFound
	case protocol.ErrNoResource:
		return http.StatusPaymentRequired
	case protocol.ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func IsLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
