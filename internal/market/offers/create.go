package offers

import (
	"math"

	"fleamarket.gg/internal/market"
	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/market/inventory"
	"fleamarket.gg/internal/market/model"
)

// Kind classifies a player listing.
type Kind int

const (
	KindSingle Kind = iota
	KindMulti
	KindPack
)

func (k Kind) String() string {
	switch k {
	case KindMulti:
		return "multi"
	case KindPack:
		return "pack"
	default:
		return "single"
	}
}

type CreateRequest struct {
	Items          []string
	Requirements   []model.Requirement
	SellInOnePiece bool
}

func (r CreateRequest) Kind() Kind {
	switch {
	case r.SellInOnePiece:
		return KindPack
	case len(r.Items) > 1:
		return KindMulti
	default:
		return KindSingle
	}
}

// Create lists inventory items of p on the market. Nothing on p changes
// unless the whole operation succeeds.
func (m *Manager) Create(p *model.Profile, req CreateRequest) (Outcome, error) {
	if len(req.Items) == 0 {
		return Outcome{}, market.Validation("no items to list")
	}
	if len(req.Requirements) == 0 {
		return Outcome{}, market.Validation("no requirements")
	}

	var items []model.Item
	for _, id := range req.Items {
		found := inventory.WithChildren(p.Inventory.Items, id)
		if len(found) == 0 {
			return Outcome{}, market.NotFound("item %s not in inventory", id)
		}
		found = model.CloneItems(found)
		inventory.FixStackCount(&found[0])
		items = append(items, found...)
	}

	now := m.Now()
	pack := req.SellInOnePiece
	listed := m.prices.RequirementsCost(req.Requirements)
	o := m.newPlayerOffer(p, req.Requirements, inventory.MergeStackable(items), pack, now)
	o.RequirementsCost = math.Round(listed)
	o.SummaryCost = o.RequirementsCost

	quality := m.prices.QualityMultiplier(o.Items)
	avg := m.prices.ListingPrice(o.Items)
	o.ItemsCost = math.Round(avg)

	toList := len(req.Items)
	stackCount := toList
	avgSingle := avg / float64(stackCount)
	listedSingle := listed
	if pack {
		stackCount = 1
		avgSingle = avg / float64(toList)
		listedSingle = listed / float64(toList)
	}
	chance := m.sell.Chance(avgSingle, listedSingle, quality)
	o.SellResults = m.sell.Roll(m.rng, chance, stackCount, pack, now)

	fee := 0.0
	if m.cfg.Sell.Fees {
		cached, ok := m.tax.Take(req.Items[0])
		if ok {
			fee = cached
		} else {
			fee = m.tax.Tax(o.Items, p, listed, stackCount, pack)
		}
		fee = math.Round(fee)
		if warnings := m.wallet.Pay(p, catalogs.RUB, fee); len(warnings) > 0 {
			m.logger.Printf("offers: %s cannot pay listing fee %.0f", p.ID, fee)
			return Outcome{Fee: fee, Warnings: warnings}, market.Payment("listing fee %.0f could not be paid", fee)
		}
	}

	var pd Pending
	rf := p.EnsureRagfair()
	rf.Offers = append(rf.Offers, o)
	pd.add(o.Clone())
	for _, id := range req.Items {
		inventory.Remove(p, id)
	}

	m.record(&pd, AuditEntry{
		Time:      now,
		Event:     EventCreated,
		ProfileID: p.ID,
		OfferID:   o.ID,
		Tpl:       o.RootTpl(),
		Amount:    o.Quantity(),
		Roubles:   o.RequirementsCost,
		Fee:       fee,
	})
	m.logger.Printf("offers: %s listed %s (%s) chance=%.0f sales=%d", p.ID, o.ID, req.Kind(), chance, len(o.SellResults))
	return Outcome{Offer: o.Clone(), Fee: fee, Pending: pd}, nil
}

// newPlayerOffer builds an offer from merged listing items. Roots move to
// the market container; outside a pack every root counts as one unit.
func (m *Manager) newPlayerOffer(p *model.Profile, reqs []model.Requirement, items []model.Item, pack bool, now int64) *model.Offer {
	ids := make(map[string]bool, len(items))
	for _, it := range items {
		ids[it.ID] = true
	}
	for i := range items {
		if ids[items[i].ParentID] {
			continue
		}
		items[i].ParentID = model.HideoutParent
		items[i].SlotID = model.HideoutParent
		if !pack {
			items[i].EnsureUpd().StackObjectsCount = 1
		}
	}

	var rating float64
	var growing bool
	if p.RagfairInfo != nil {
		rating = p.RagfairInfo.Rating
		growing = p.RagfairInfo.IsRatingGrowing
	}
	return &model.Offer{
		ID: m.NewID(),
		User: model.User{
			ID:              p.ID,
			MemberType:      model.MemberDefault,
			Nickname:        p.Info.Nickname,
			Rating:          rating,
			IsRatingGrowing: growing,
		},
		Root:           items[0].ID,
		Items:          items,
		Requirements:   append([]model.Requirement(nil), reqs...),
		StartTime:      now,
		EndTime:        now + int64(m.cfg.OfferDuration().Seconds()),
		SellInOnePiece: pack,
		LoyaltyLevel:   1,
	}
}
