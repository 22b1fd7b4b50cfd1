package main

import (
	"encoding/json"
	"io"
	"log"
	"math/rand"
	"testing"

	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/protocol"
)

func TestBrowserFramesAreValid(t *testing.T) {
	b := &browser{session: "bot", rng: rand.New(rand.NewSource(7))}
	logger := log.New(io.Discard, "", 0)

	for i := 0; i < 20; i++ {
		frames := b.next()
		if i > 0 && len(frames) != 3 {
			t.Fatalf("round %d: frames=%d", i, len(frames))
		}
		for _, f := range frames {
			raw, _ := json.Marshal(f)
			if err := protocol.ValidateEnvelope(raw); err != nil {
				t.Fatalf("envelope %s: %v", f.Type, err)
			}
			if err := protocol.ValidateBody(f.Type, f.Body); err != nil {
				t.Fatalf("body %s: %v (%s)", f.Type, err, f.Body)
			}
		}
		b.observe(logger, protocol.Reply{
			Type: protocol.TypeFind,
			OK:   true,
			Body: protocol.SearchResponse{Offers: []*model.Offer{{
				ID:    "o",
				IntID: 3,
				Items: []model.Item{{ID: "i", Tpl: "tpl"}},
			}}},
		})
	}
	if b.lastIntID != 3 || b.lastTpl != "tpl" {
		t.Fatalf("observe: id=%d tpl=%s", b.lastIntID, b.lastTpl)
	}
}
