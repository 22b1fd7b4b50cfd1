package search

import (
	"math"

	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/market/model"
)

const oneHourSeconds = 3600

// passesFilters applies the request's user-facing filters to one offer.
func (e *Engine) passesFilters(req *model.SearchRequest, o *model.Offer, p *model.Profile) bool {
	if len(o.Items) == 0 || len(o.Requirements) == 0 {
		return false
	}
	root := o.Items[0]
	trader := o.IsTrader()

	if !trader && o.User.MemberType == model.MemberDefault && p.Info.Level < e.cfg.MinUserLevel {
		return false
	}
	if req.OfferOwnerType == model.OwnerTraders && !trader {
		return false
	}
	if req.OfferOwnerType == model.OwnerPlayers && trader {
		return false
	}
	if req.OneHourExpiration && o.EndTime-e.Now() > oneHourSeconds {
		return false
	}

	stack := root.StackCount()
	if req.QuantityFrom > 0 && req.QuantityFrom >= stack {
		return false
	}
	if req.QuantityTo > 0 && req.QuantityTo <= stack {
		return false
	}
	if req.OnlyFunctional && !e.functional(o) {
		return false
	}
	if !e.conditionInRange(req, o) {
		return false
	}

	money := o.Requirements[0].Tpl
	if req.Currency > 0 && catalogs.IsMoney(money) && money != catalogs.CurrencyTpl(req.Currency) {
		return false
	}
	if req.PriceFrom > 0 && float64(req.PriceFrom) >= o.RequirementsCost {
		return false
	}
	if req.PriceTo > 0 && float64(req.PriceTo) <= o.RequirementsCost {
		return false
	}
	return !math.IsNaN(o.RequirementsCost)
}

// functional rejects weapons listed without any attached part.
func (e *Engine) functional(o *model.Offer) bool {
	if !e.cats.Items.IsWeapon(o.RootTpl()) {
		return true
	}
	return len(o.Items) > 1
}

// conditionInRange checks wear against conditionFrom/conditionTo, both in
// percent. A zero upper bound counts as 100.
func (e *Engine) conditionInRange(req *model.SearchRequest, o *model.Offer) bool {
	lo, hi := float64(req.ConditionFrom), float64(req.ConditionTo)
	if hi <= 0 {
		hi = 100
	}
	if len(o.Items) == 1 {
		root := o.Items[0]
		if !hasCondition(root) {
			return true
		}
		pct := 100 * e.quality.ItemQuality(root)
		if lo > 0 && lo > pct {
			return false
		}
		if hi < 100 && hi <= pct {
			return false
		}
		return true
	}
	pct := 100 * e.quality.QualityMultiplier(o.Items)
	return pct >= lo && pct <= hi
}

func hasCondition(it model.Item) bool {
	u := it.Upd
	if u == nil {
		return false
	}
	return u.MedKit != nil || u.Repairable != nil || u.Resource != nil ||
		u.FoodDrink != nil || u.Key != nil || u.RepairKit != nil
}

// displayable decides whether an offer that passed the filters belongs in a
// general, linked or build result for this profile.
func displayable(req *model.SearchRequest, candidates Candidates, assorts map[string]*model.TraderAssort, o *model.Offer) bool {
	if !candidates.Has(o.RootTpl()) {
		return false
	}
	if req.NeededSearchID != "" && !requires(o, req.NeededSearchID) {
		return false
	}
	if req.RemoveBartering && !catalogs.IsMoney(o.Requirements[0].Tpl) {
		return false
	}
	if math.IsNaN(o.RequirementsCost) {
		return false
	}
	if o.IsTrader() {
		a, ok := assorts[o.User.ID]
		if !ok {
			return false
		}
		if _, listed := a.Item(o.Root); !listed {
			return false
		}
	}
	return true
}

func requires(o *model.Offer, tpl string) bool {
	for _, r := range o.Requirements {
		if r.Tpl == tpl {
			return true
		}
	}
	return false
}

func onlyMoney(o *model.Offer) bool {
	return len(o.Requirements) == 1 && catalogs.IsMoney(o.Requirements[0].Tpl)
}
