package search

import "fleamarket.gg/internal/market/model"

func (e *Engine) validOffers(req *model.SearchRequest, candidates Candidates, assorts map[string]*model.TraderAssort, p *model.Profile) []*model.Offer {
	var out []*model.Offer
	for _, o := range e.pool.All() {
		if e.passesFilters(req, o, p) && displayable(req, candidates, assorts, o) {
			out = append(out, o)
		}
	}
	return out
}

func (e *Engine) requiredOffers(req *model.SearchRequest, p *model.Profile) []*model.Offer {
	var out []*model.Offer
	for _, o := range e.pool.Requiring(req.NeededSearchID) {
		if e.passesFilters(req, o, p) {
			out = append(out, o)
		}
	}
	return out
}

// buildOffers returns the cheapest purchasable offer for each build key.
func (e *Engine) buildOffers(req *model.SearchRequest, candidates Candidates, assorts map[string]*model.TraderAssort, p *model.Profile) []*model.Offer {
	byTpl := map[string][]*model.Offer{}
	for _, tpl := range candidates.List() {
		for _, o := range e.pool.ByTpl(tpl) {
			if o.SellInOnePiece {
				continue
			}
			if !e.passesFilters(req, o, p) || !displayable(req, candidates, assorts, o) {
				continue
			}
			if o.IsTrader() && !e.traderPurchasable(o, assorts, p) {
				continue
			}
			byTpl[tpl] = append(byTpl[tpl], o)
		}
	}

	var out []*model.Offer
	for _, tpl := range candidates.List() {
		possible := byTpl[tpl]
		if len(possible) == 0 {
			continue
		}
		sortOffers(possible, model.SortByPrice, model.SortAscending, nil)
		out = append(out, possible[0])
	}
	return out
}

// traderPurchasable syncs a trader offer against the live assortment and
// reports whether the profile could buy it right now.
func (e *Engine) traderPurchasable(o *model.Offer, assorts map[string]*model.TraderAssort, p *model.Profile) bool {
	if !e.limits.Sync(o, p).OK() || !e.limits.SyncStackSize(o).OK() {
		return false
	}
	if o.BuyRestrictionMax > 0 && o.BuyRestrictionCurrent >= o.BuyRestrictionMax {
		return false
	}
	if o.Items[0].Upd != nil && o.Items[0].Upd.StackObjectsCount == 0 {
		return false
	}
	if questLocked(o, assorts) {
		return false
	}
	return loyaltyLevel(p, o.User.ID) >= o.LoyaltyLevel
}

func loyaltyLevel(p *model.Profile, traderID string) int {
	if lvl, ok := p.TraderLoyalty[traderID]; ok {
		return lvl
	}
	return 1
}
