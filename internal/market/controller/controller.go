// Package controller is the market's entry point: it loads the session's
// profile, runs the engines and shapes their output into responses.
package controller

import (
	"context"
	"log"
	"time"

	"fleamarket.gg/internal/market"
	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/market/offers"
	"fleamarket.gg/internal/market/pool"
	"fleamarket.gg/internal/market/pricing"
	"fleamarket.gg/internal/market/search"
	"fleamarket.gg/internal/market/tax"
	"fleamarket.gg/internal/market/traders"
	"fleamarket.gg/internal/market/tuning"
	"fleamarket.gg/internal/protocol"
)

// Profiles is the profile store as the controller needs it.
type Profiles interface {
	offers.Profiles
	// Get returns a private copy of the profile.
	Get(ctx context.Context, id string) (*model.Profile, error)
}

type Deps struct {
	Config   tuning.Tuning
	Traders  *traders.Registry
	Pool     *pool.Pool
	Prices   *pricing.Engine
	Tax      *tax.Calculator
	Search   *search.Engine
	Offers   *offers.Manager
	Profiles Profiles
	Logger   *log.Logger
}

type Controller struct {
	cfg      tuning.Tuning
	traders  *traders.Registry
	pool     *pool.Pool
	prices   *pricing.Engine
	tax      *tax.Calculator
	search   *search.Engine
	offers   *offers.Manager
	profiles Profiles
	logger   *log.Logger

	Now func() int64
}

func New(d Deps) *Controller {
	return &Controller{
		cfg:      d.Config,
		traders:  d.Traders,
		pool:     d.Pool,
		prices:   d.Prices,
		tax:      d.Tax,
		search:   d.Search,
		offers:   d.Offers,
		profiles: d.Profiles,
		logger:   d.Logger,
		Now:      func() int64 { return time.Now().Unix() },
	}
}

// RefreshTraderOffers replaces every trader offer in the pool with a fresh
// one built from the current assortments.
func (c *Controller) RefreshTraderOffers() int {
	c.pool.RemoveWhere(func(o *model.Offer) bool { return o.IsTrader() })
	fresh := c.traders.Offers(c.Now(), int64(c.cfg.OfferDuration().Seconds()), c.prices.RequirementsCost)
	for _, o := range fresh {
		c.pool.Add(o)
	}
	return len(fresh)
}

func (c *Controller) Search(ctx context.Context, sessionID string, req *model.SearchRequest) (protocol.SearchResponse, error) {
	p, err := c.profiles.Get(ctx, sessionID)
	if err != nil {
		return protocol.SearchResponse{}, err
	}
	res := c.search.Search(req, c.traders.DisplayableAssorts(p), p)
	if len(res.Warnings) > 0 {
		c.logger.Printf("ragfair: search for %s: %d trader offers out of sync", sessionID, len(res.Warnings))
	}
	return protocol.SearchResponse{
		Offers:           res.Offers,
		OffersCount:      res.OffersCount,
		SelectedCategory: req.HandbookID,
		Categories:       res.Categories,
	}, nil
}

// GetOfferByID resolves an index handed out by the last search.
func (c *Controller) GetOfferByID(intID int) (*model.Offer, error) {
	o, ok := c.pool.GetByIntID(intID)
	if !ok {
		return nil, market.NotFound("offer %d not found", intID)
	}
	return o, nil
}

func (c *Controller) GetPriceQuote(tpl string) model.PriceQuote {
	return c.prices.Quote(tpl)
}

func (c *Controller) AllFleaPrices() map[string]float64 { return c.prices.AllFleaPrices() }

func (c *Controller) StaticPrices() map[string]float64 { return c.prices.StaticPrices() }

// StoreClientTax keeps the fee the client quoted for an item so the next
// listing of that item charges exactly it.
func (c *Controller) StoreClientTax(req protocol.OfferFeesRequest) error {
	if req.ID == "" {
		return market.Validation("offer fee without item id")
	}
	c.tax.Store(req.ID, req.Fee)
	return nil
}

func (c *Controller) CreateOffer(ctx context.Context, sessionID string, req protocol.AddOfferRequest) protocol.ItemEventResponse {
	var out offers.Outcome
	err := c.profiles.WithSaved(ctx, sessionID, func(p *model.Profile) error {
		var err error
		out, err = c.offers.Create(p, offers.CreateRequest{
			Items:          req.Items,
			Requirements:   req.Requirements,
			SellInOnePiece: req.SellInOnePiece,
		})
		return err
	}, func() { c.offers.Commit(out.Pending) })
	return c.respond("create", sessionID, out, err)
}

func (c *Controller) RemoveOffer(ctx context.Context, sessionID string, req protocol.RemoveOfferRequest) protocol.ItemEventResponse {
	var out offers.Outcome
	err := c.profiles.WithSaved(ctx, sessionID, func(p *model.Profile) error {
		var err error
		out, err = c.offers.Remove(p, req.OfferID)
		return err
	}, func() { c.offers.Commit(out.Pending) })
	return c.respond("remove", sessionID, out, err)
}

func (c *Controller) ExtendOffer(ctx context.Context, sessionID string, req protocol.ExtendOfferRequest) protocol.ItemEventResponse {
	var out offers.Outcome
	err := c.profiles.WithSaved(ctx, sessionID, func(p *model.Profile) error {
		var err error
		out, err = c.offers.Extend(p, req.OfferID, float64(req.RenewalTime))
		return err
	}, func() { c.offers.Commit(out.Pending) })
	return c.respond("extend", sessionID, out, err)
}

func (c *Controller) Sweep(ctx context.Context) (offers.SweepStats, error) {
	return c.offers.Sweep(ctx, c.profiles)
}

// respond folds an outcome into an item event response. Errors become a
// warning entry instead of leaving the market.
func (c *Controller) respond(op, sessionID string, out offers.Outcome, err error) protocol.ItemEventResponse {
	resp := protocol.ItemEventResponse{Warnings: []model.Warning{}, Fee: out.Fee}
	if out.Offer != nil && err == nil {
		resp.OfferID = out.Offer.ID
	}
	if len(out.Warnings) > 0 {
		resp.Warnings = append(resp.Warnings, out.Warnings...)
	} else if err != nil {
		resp.Warnings = append(resp.Warnings, model.Warning{Code: market.CodeOf(err), Errmsg: market.MessageOf(err)})
	}
	if err != nil {
		c.logger.Printf("ragfair: %s for %s: %v", op, sessionID, err)
	}
	return resp
}
