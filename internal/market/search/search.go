// Package search answers flea market queries over the offer pool.
package search

import (
	"log"
	"time"

	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/market/limits"
	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/market/tuning"
)

// Pool is the part of the offer pool the search reads and annotates.
type Pool interface {
	All() []*model.Offer
	ByTpl(tpl string) []*model.Offer
	Requiring(tpl string) []*model.Offer
	SetIndexes(idx map[string]int)
}

// Quality rates item condition as a multiplier in (0, 1].
type Quality interface {
	ItemQuality(it model.Item) float64
	QualityMultiplier(items []model.Item) float64
}

type Engine struct {
	pool    Pool
	cats    *catalogs.Catalogs
	quality Quality
	limits  *limits.Tracker
	cfg     tuning.Tuning
	logger  *log.Logger

	// Now returns the current unix time; tests pin it.
	Now func() int64
}

func New(pool Pool, cats *catalogs.Catalogs, quality Quality, tracker *limits.Tracker, cfg tuning.Tuning, logger *log.Logger) *Engine {
	return &Engine{
		pool:    pool,
		cats:    cats,
		quality: quality,
		limits:  tracker,
		cfg:     cfg,
		logger:  logger,
		Now:     func() int64 { return time.Now().Unix() },
	}
}

type Result struct {
	Offers      []*model.Offer
	OffersCount int
	Categories  map[string]int
	Warnings    []model.Warning
}

// Search runs one flea query for profile p. assorts is the trader
// assortment as p currently sees it, keyed by trader id.
func (e *Engine) Search(req *model.SearchRequest, assorts map[string]*model.TraderAssort, p *model.Profile) Result {
	mode := req.Mode()
	candidates := e.Candidates(req)

	var offers []*model.Offer
	switch mode {
	case model.SearchBuild:
		offers = e.buildOffers(req, candidates, assorts, p)
	case model.SearchRequired:
		offers = e.requiredOffers(req, p)
	default:
		offers = e.validOffers(req, candidates, assorts, p)
	}

	var res Result
	for _, o := range offers {
		if o.IsTrader() {
			res.Warnings = append(res.Warnings, e.annotateTrader(o, assorts, p)...)
		}
	}

	e.assignIndexes(offers)

	if req.UpdateOfferCount {
		res.Categories = e.categories(req, mode, offers, p)
	}

	sortOffers(offers, req.SortType, req.SortDirection, e.cats.Items.Title)

	res.OffersCount = len(offers)
	if mode != model.SearchBuild {
		offers = paginate(offers, req.Page, req.Limit)
	}
	res.Offers = offers
	return res
}

// annotateTrader flags quest-locked trader offers and brings their purchase
// limits and stock in line with the live assortment.
func (e *Engine) annotateTrader(o *model.Offer, assorts map[string]*model.TraderAssort, p *model.Profile) []model.Warning {
	o.Locked = questLocked(o, assorts)
	var warnings []model.Warning
	for _, r := range []limits.Result{e.limits.Sync(o, p), e.limits.SyncStackSize(o)} {
		if !r.OK() {
			e.logger.Printf("search: offer %s: %s", o.ID, r.Warning.Errmsg)
			warnings = append(warnings, *r.Warning)
		}
	}
	return warnings
}

func questLocked(o *model.Offer, assorts map[string]*model.TraderAssort) bool {
	a := assorts[o.User.ID]
	for _, it := range o.Items {
		if a.QuestLocked(it.ID) {
			return true
		}
	}
	return false
}

// assignIndexes numbers the result 1..N, detaches each root from its
// container and records the numbers in the pool for id lookups.
func (e *Engine) assignIndexes(offers []*model.Offer) {
	idx := make(map[string]int, len(offers))
	for i, o := range offers {
		o.IntID = i + 1
		if len(o.Items) > 0 {
			o.Items[0].ParentID = ""
		}
		idx[o.ID] = o.IntID
	}
	e.pool.SetIndexes(idx)
}

// paginate returns offers[page*limit : min((page+1)*limit, len)].
func paginate(offers []*model.Offer, page, limit int) []*model.Offer {
	start := page * limit
	end := (page + 1) * limit
	if end > len(offers) {
		end = len(offers)
	}
	if start < 0 || start >= end {
		return []*model.Offer{}
	}
	return offers[start:end]
}
