// Package router turns validated protocol frames into market calls. The
// HTTP and websocket transports both dispatch through it.
package router

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"

	"fleamarket.gg/internal/market"
	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/protocol"
)

// Market is the controller surface the transports expose.
type Market interface {
	Search(ctx context.Context, sessionID string, req *model.SearchRequest) (protocol.SearchResponse, error)
	GetOfferByID(intID int) (*model.Offer, error)
	GetPriceQuote(tpl string) model.PriceQuote
	AllFleaPrices() map[string]float64
	StoreClientTax(req protocol.OfferFeesRequest) error
	CreateOffer(ctx context.Context, sessionID string, req protocol.AddOfferRequest) protocol.ItemEventResponse
	RemoveOffer(ctx context.Context, sessionID string, req protocol.RemoveOfferRequest) protocol.ItemEventResponse
	ExtendOffer(ctx context.Context, sessionID string, req protocol.ExtendOfferRequest) protocol.ItemEventResponse
}

type Router struct {
	market Market
	log    *log.Logger

	mu     sync.Mutex
	counts map[string]uint64
	errs   map[string]uint64
}

func New(m Market, logger *log.Logger) *Router {
	return &Router{
		market: m,
		log:    logger,
		counts: map[string]uint64{},
		errs:   map[string]uint64{},
	}
}

// sessionless types can be served without a session id.
var sessionless = map[string]bool{
	protocol.TypeFindByID:    true,
	protocol.TypeMarketPrice: true,
	protocol.TypeOfferFees:   true,
	protocol.TypePrices:      true,
}

// Known reports whether msgType is a request type the router serves.
func Known(msgType string) bool {
	switch msgType {
	case protocol.TypeFind, protocol.TypeFindByID, protocol.TypeMarketPrice,
		protocol.TypeAddOffer, protocol.TypeRemoveOffer, protocol.TypeExtendOffer,
		protocol.TypeOfferFees, protocol.TypePrices:
		return true
	}
	return false
}

// Dispatch validates env's body and runs the matching market operation.
// It never returns an error: failures are reported in the reply.
func (r *Router) Dispatch(ctx context.Context, env protocol.Envelope) protocol.Reply {
	reply := r.dispatch(ctx, env)
	reply.Type = env.Type
	reply.RequestID = env.RequestID

	r.mu.Lock()
	r.counts[env.Type]++
	if !reply.OK {
		r.errs[reply.Code]++
	}
	r.mu.Unlock()
	if reply.Code == protocol.ErrInternal && r.log != nil {
		r.log.Printf("router: %s for %s: %s", env.Type, env.SessionID, reply.Message)
	}
	return reply
}

func (r *Router) dispatch(ctx context.Context, env protocol.Envelope) protocol.Reply {
	if !Known(env.Type) {
		return fail(protocol.ErrUnknownType, "unknown message type "+env.Type)
	}
	if env.SessionID == "" && !sessionless[env.Type] {
		return fail(protocol.ErrNoSession, "session id required")
	}
	if err := protocol.ValidateBody(env.Type, env.Body); err != nil {
		return fail(protocol.ErrProtoBadRequest, err.Error())
	}

	switch env.Type {
	case protocol.TypeFind:
		var req model.SearchRequest
		if err := decode(env.Body, &req); err != nil {
			return fail(protocol.ErrProtoBadRequest, err.Error())
		}
		resp, err := r.market.Search(ctx, env.SessionID, &req)
		if err != nil {
			return failErr(err)
		}
		return ok(resp)

	case protocol.TypeFindByID:
		var req protocol.FindByIDRequest
		if err := decode(env.Body, &req); err != nil {
			return fail(protocol.ErrProtoBadRequest, err.Error())
		}
		o, err := r.market.GetOfferByID(req.ID)
		if err != nil {
			return failErr(err)
		}
		return ok(o)

	case protocol.TypeMarketPrice:
		var req protocol.MarketPriceRequest
		if err := decode(env.Body, &req); err != nil {
			return fail(protocol.ErrProtoBadRequest, err.Error())
		}
		return ok(r.market.GetPriceQuote(req.TemplateID))

	case protocol.TypePrices:
		return ok(r.market.AllFleaPrices())

	case protocol.TypeOfferFees:
		var req protocol.OfferFeesRequest
		if err := decode(env.Body, &req); err != nil {
			return fail(protocol.ErrProtoBadRequest, err.Error())
		}
		if err := r.market.StoreClientTax(req); err != nil {
			return failErr(err)
		}
		return ok(nil)

	case protocol.TypeAddOffer:
		var req protocol.AddOfferRequest
		if err := decode(env.Body, &req); err != nil {
			return fail(protocol.ErrProtoBadRequest, err.Error())
		}
		return event(r.market.CreateOffer(ctx, env.SessionID, req))

	case protocol.TypeRemoveOffer:
		var req protocol.RemoveOfferRequest
		if err := decode(env.Body, &req); err != nil {
			return fail(protocol.ErrProtoBadRequest, err.Error())
		}
		return event(r.market.RemoveOffer(ctx, env.SessionID, req))

	case protocol.TypeExtendOffer:
		var req protocol.ExtendOfferRequest
		if err := decode(env.Body, &req); err != nil {
			return fail(protocol.ErrProtoBadRequest, err.Error())
		}
		return event(r.market.ExtendOffer(ctx, env.SessionID, req))
	}
	return fail(protocol.ErrUnknownType, "unknown message type "+env.Type)
}

// Counter is one request or error count.
type Counter struct {
	Key   string
	Value uint64
}

// Stats returns request counts per type and error counts per code, sorted.
func (r *Router) Stats() (requests, errors []Counter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sorted(r.counts), sorted(r.errs)
}

func sorted(m map[string]uint64) []Counter {
	out := make([]Counter, 0, len(m))
	for k, v := range m {
		out = append(out, Counter{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func ok(body any) protocol.Reply {
	return protocol.Reply{OK: true, Body: body}
}

func fail(code, msg string) protocol.Reply {
	return protocol.Reply{OK: false, Code: code, Message: msg}
}

func failErr(err error) protocol.Reply {
	return fail(market.CodeOf(err), market.MessageOf(err))
}

// event replies OK even when the operation failed; the response's warnings
// carry business failures to the client.
func event(resp protocol.ItemEventResponse) protocol.Reply {
	return ok(resp)
}
