// Package pricing values items for the flea market: live quotes from listed
// offers, static fallbacks and the condition of individual items.
package pricing

import (
	"math"

	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/market/tuning"
)

// OfferSource yields live offers whose root item has the given tpl.
type OfferSource interface {
	ByTpl(tpl string) []*model.Offer
}

type Engine struct {
	cats   *catalogs.Catalogs
	offers OfferSource
	cfg    tuning.Tuning
}

func New(cats *catalogs.Catalogs, offers OfferSource, cfg tuning.Tuning) *Engine {
	return &Engine{cats: cats, offers: offers, cfg: cfg}
}

// Quote summarizes the live offers of tpl. Offers asking for anything other
// than money are left out of the average. With nothing listed the static
// price is returned as avg, min and max alike.
func (e *Engine) Quote(tpl string) model.PriceQuote {
	offers := e.offers.ByTpl(tpl)
	if len(offers) == 0 {
		p := e.staticPrice(tpl)
		return model.PriceQuote{Avg: p, Min: p, Max: p}
	}

	min := math.MaxFloat64
	max := 0.0
	sum := 0.0
	counted := 0
	for _, o := range offers {
		if hasBarterTerm(o) {
			continue
		}
		units := 1
		if o.SellInOnePiece {
			units = o.Items[0].StackCount()
		}
		p := o.RequirementsCost / float64(units)
		// A price that lowers min is never considered for max.
		if p < min {
			min = p
		} else if p > max {
			max = p
		}
		counted++
		sum += p
	}
	if min == math.MaxFloat64 {
		min = 0
	}
	avg := sum / float64(maxInt(counted, 1))
	return model.PriceQuote{Avg: math.Round(avg), Min: min, Max: max}
}

func hasBarterTerm(o *model.Offer) bool {
	for _, r := range o.Requirements {
		if !catalogs.IsMoney(r.Tpl) {
			return true
		}
	}
	return false
}

func (e *Engine) staticPrice(tpl string) float64 {
	if p, ok := e.cats.Prices.ByTpl[tpl]; ok && p > 0 {
		return p
	}
	p, _ := e.cats.Handbook.Price(tpl)
	return p
}

// FleaPrice is the market value of one tpl, never zero.
func (e *Engine) FleaPrice(tpl string) float64 {
	if p, ok := e.cats.FleaPrice(tpl); ok && p > 0 {
		return p
	}
	return 1
}

// RequirementsCost converts a requirement list into roubles: money terms at
// handbook rate, barter terms at their flea value.
func (e *Engine) RequirementsCost(reqs []model.Requirement) float64 {
	total := 0.0
	for _, r := range reqs {
		if catalogs.IsMoney(r.Tpl) {
			total += e.cats.InRoubles(float64(r.Count), r.Tpl)
			continue
		}
		total += e.FleaPrice(r.Tpl) * float64(r.Count)
	}
	return total
}

// ItemsPrice values a listing. A weapon is priced by its root alone since
// its attached parts are part of the preset price already.
func (e *Engine) ItemsPrice(items []model.Item) float64 {
	if len(items) == 0 {
		return 0
	}
	if e.cats.Items.IsWeapon(items[0].Tpl) {
		return e.FleaPrice(items[0].Tpl)
	}
	total := 0.0
	for _, it := range items {
		total += e.FleaPrice(it.Tpl)
	}
	return total
}

// ListingPrice is ItemsPrice adjusted by the configured multiplier of the
// root tpl and by the quality of the items.
func (e *Engine) ListingPrice(items []model.Item) float64 {
	if len(items) == 0 {
		return 0
	}
	return e.ItemsPrice(items) * e.cfg.PriceMultiplier(items[0].Tpl) * e.QualityMultiplier(items)
}

// AllFleaPrices returns a copy of the dynamic price table.
func (e *Engine) AllFleaPrices() map[string]float64 {
	out := make(map[string]float64, len(e.cats.Prices.ByTpl))
	for tpl, p := range e.cats.Prices.ByTpl {
		out[tpl] = p
	}
	return out
}

// StaticPrices returns the handbook price of every item.
func (e *Engine) StaticPrices() map[string]float64 {
	out := make(map[string]float64, len(e.cats.Handbook.Items))
	for _, it := range e.cats.Handbook.Items {
		out[it.ID] = it.Price
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
