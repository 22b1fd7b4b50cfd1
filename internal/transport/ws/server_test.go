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

	"fleamarket.gg/internal/market/controller"
	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/persistence/profilestore"
	"fleamarket.gg/internal/protocol"
	"fleamarket.gg/internal/transport/router"
)

func dial(t *testing.T) *websocket.Conn {
	t.Helper()
	store := profilestore.NewMemory()
	m, err := controller.Open(controller.Options{
		ConfigDir: "../../../configs",
		Profiles:  store,
		Logger:    log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	m.RefreshTraderOffers()
	if err := store.Put(context.Background(), &model.Profile{ID: "pmc", Info: model.Info{Level: 20}}); err != nil {
		t.Fatalf("put: %v", err)
	}

	logger := log.New(io.Discard, "", 0)
	srv := httptest.NewServer(NewServer(router.New(m, logger), logger).Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, frame string) protocol.Reply {
	t.Helper()
	_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var reply protocol.Reply
	if err := json.Unmarshal(msg, &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	return reply
}

func TestServer_AnswersFramesInOrder(t *testing.T) {
	conn := dial(t)

	reply := roundTrip(t, conn, `{"type":"RAGFAIR_FIND","request_id":"r1","session_id":"pmc","body":{"page":0,"limit":2}}`)
	if !reply.OK || reply.Type != protocol.TypeFind || reply.RequestID != "r1" {
		t.Fatalf("find reply=%+v", reply)
	}
	var resp protocol.SearchResponse
	raw, _ := json.Marshal(reply.Body)
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Offers) != 2 || resp.OffersCount <= 2 {
		t.Fatalf("page=%d count=%d", len(resp.Offers), resp.OffersCount)
	}

	reply = roundTrip(t, conn, `{"type":"RAGFAIR_FIND_BY_ID","request_id":"r2","session_id":"pmc","body":{"id":`+itoa(resp.Offers[0].IntID)+`}}`)
	if !reply.OK || reply.RequestID != "r2" {
		t.Fatalf("findbyid reply=%+v", reply)
	}
}

func TestServer_RejectsBadFrames(t *testing.T) {
	conn := dial(t)

	if reply := roundTrip(t, conn, `not json`); reply.OK || reply.Type != protocol.TypeError || reply.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("garbage reply=%+v", reply)
	}
	if reply := roundTrip(t, conn, `{"type":"RAGFAIR_FIND","body":{"page":0,"limit":1}}`); reply.OK || reply.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("no session reply=%+v", reply)
	}
	if reply := roundTrip(t, conn, `{"type":"RAGFAIR_FIND","protocol_version":"0.1","session_id":"pmc","body":{"page":0,"limit":1}}`); reply.OK || reply.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("old version reply=%+v", reply)
	}
	if reply := roundTrip(t, conn, `{"type":"RAGFAIR_TELEPORT","session_id":"pmc"}`); reply.OK || reply.Code != protocol.ErrUnknownType {
		t.Fatalf("unknown type reply=%+v", reply)
	}
	// The connection survives rejected frames.
	if reply := roundTrip(t, conn, `{"type":"RAGFAIR_PRICES","session_id":"pmc"}`); !reply.OK {
		t.Fatalf("prices reply=%+v", reply)
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
