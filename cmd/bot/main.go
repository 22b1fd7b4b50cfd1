package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"fleamarket.gg/internal/protocol"
)

func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		session = flag.String("session", "bot", "profile id to browse as")
		every   = flag.Duration("every", 2*time.Second, "delay between searches")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	b := &browser{session: *session, rng: rand.New(rand.NewSource(*seed))}
	tick := time.NewTicker(*every)
	defer tick.Stop()
	for {
		for _, frame := range b.next() {
			if err := conn.WriteJSON(frame); err != nil {
				logger.Printf("write: %v", err)
				return
			}
			_, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Printf("read: %v", err)
				return
			}
			var reply protocol.Reply
			if err := json.Unmarshal(msg, &reply); err != nil {
				continue
			}
			b.observe(logger, reply)
		}
		select {
		case <-stop:
			return
		case <-tick.C:
		}
	}
}

// browser issues a random search, then looks up the first offer it got
// back by int id and asks for that item's market quote.
type browser struct {
	session string
	rng     *rand.Rand
	seq     int

	lastIntID int
	lastTpl   string
}

var sortTypes = []int{0, 2, 3, 4, 5, 6}

func (b *browser) next() []protocol.Envelope {
	body := map[string]any{
		"page":           b.rng.Intn(3),
		"limit":          15,
		"sortType":       sortTypes[b.rng.Intn(len(sortTypes))],
		"sortDirection":  b.rng.Intn(2),
		"currency":       0,
		"offerOwnerType": b.rng.Intn(3),
	}
	frames := []protocol.Envelope{b.frame(protocol.TypeFind, body)}
	if b.lastIntID > 0 {
		frames = append(frames, b.frame(protocol.TypeFindByID, protocol.FindByIDRequest{ID: b.lastIntID}))
	}
	if b.lastTpl != "" {
		frames = append(frames, b.frame(protocol.TypeMarketPrice, protocol.MarketPriceRequest{TemplateID: b.lastTpl}))
	}
	return frames
}

func (b *browser) frame(msgType string, body any) protocol.Envelope {
	b.seq++
	raw, _ := json.Marshal(body)
	return protocol.Envelope{
		Type:            msgType,
		ProtocolVersion: protocol.Version,
		RequestID:       fmt.Sprintf("bot_%d", b.seq),
		SessionID:       b.session,
		Body:            raw,
	}
}

func (b *browser) observe(logger *log.Logger, reply protocol.Reply) {
	if !reply.OK {
		logger.Printf("%s %s: %s %s", reply.Type, reply.RequestID, reply.Code, reply.Message)
		return
	}
	switch reply.Type {
	case protocol.TypeFind:
		raw, _ := json.Marshal(reply.Body)
		var resp protocol.SearchResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return
		}
		b.lastIntID, b.lastTpl = 0, ""
		if len(resp.Offers) > 0 {
			b.lastIntID = resp.Offers[0].IntID
			b.lastTpl = resp.Offers[0].RootTpl()
		}
		logger.Printf("FIND %s count=%d page=%d", reply.RequestID, resp.OffersCount, len(resp.Offers))
	case protocol.TypeMarketPrice:
		logger.Printf("PRICE %s tpl=%s %v", reply.RequestID, b.lastTpl, reply.Body)
	}
}
