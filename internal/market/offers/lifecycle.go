package offers

import (
	"math"

	"fleamarket.gg/internal/market"
	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/market/model"
)

// Remove withdraws a listing. The offer is not deleted here: its end time
// is pulled in to the grace window so the sweep expires it and the player
// can still extend it meanwhile.
func (m *Manager) Remove(p *model.Profile, offerID string) (Outcome, error) {
	idx := p.OfferIndex(offerID)
	if idx < 0 {
		return Outcome{}, market.NotFound("offer %s not found", offerID)
	}
	o := p.RagfairInfo.Offers[idx]
	var pd Pending
	now := m.Now()
	grace := int64(m.cfg.Sell.ExpireSeconds)
	if o.EndTime-now > grace {
		o.EndTime = now + grace
		end := o.EndTime
		pd.update(o.ID, func(po *model.Offer) { po.EndTime = end })
	}
	m.record(&pd, AuditEntry{Time: now, Event: EventRemoved, ProfileID: p.ID, OfferID: o.ID, Tpl: o.RootTpl()})
	return Outcome{Offer: o.Clone(), Pending: pd}, nil
}

// Extend pushes the end time out by renewalHours, charging the listing fee
// again for the offer's current quantity when fees are on.
func (m *Manager) Extend(p *model.Profile, offerID string, renewalHours float64) (Outcome, error) {
	idx := p.OfferIndex(offerID)
	if idx < 0 {
		return Outcome{}, market.NotFound("offer %s not found", offerID)
	}
	o := p.RagfairInfo.Offers[idx]

	fee := 0.0
	if m.cfg.Sell.Fees {
		count := 1
		if !o.SellInOnePiece {
			count = 0
			for _, it := range o.Items {
				count += it.StackCount()
			}
		}
		fee = math.Round(m.tax.Tax(o.Items, p, o.RequirementsCost, count, o.SellInOnePiece))
		if warnings := m.wallet.Pay(p, catalogs.RUB, fee); len(warnings) > 0 {
			return Outcome{Fee: fee, Warnings: warnings}, market.Payment("extension fee %.0f could not be paid", fee)
		}
	}

	var pd Pending
	o.EndTime += int64(math.Round(renewalHours * 3600))
	end := o.EndTime
	pd.update(o.ID, func(po *model.Offer) { po.EndTime = end })
	m.record(&pd, AuditEntry{Event: EventExtended, ProfileID: p.ID, OfferID: o.ID, Tpl: o.RootTpl(), Fee: fee})
	return Outcome{Offer: o.Clone(), Fee: fee, Pending: pd}, nil
}
