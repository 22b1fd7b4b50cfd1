// Package limits keeps trader offers in line with the live assortment and
// the buyer's purchase history.
package limits

import (
	"fmt"

	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/protocol"
)

// Assortments looks up live trader assortment entries.
type Assortments interface {
	AssortItem(traderID, itemID string) (model.Item, bool)
}

// Result reports a sync that could not be applied. The offer is left as it
// was whenever Warning is set.
type Result struct {
	Warning *model.Warning
}

func (r Result) OK() bool { return r.Warning == nil }

type Tracker struct {
	assorts Assortments
}

func New(a Assortments) *Tracker {
	return &Tracker{assorts: a}
}

// Sync sets the offer's buy restriction counters. The profile's own purchase
// record wins over the assortment's current count when one exists.
func (t *Tracker) Sync(o *model.Offer, p *model.Profile) Result {
	assortID := o.RootItem().ID
	it, ok := t.assorts.AssortItem(o.User.ID, assortID)
	if !ok {
		return missing(o.User.ID, assortID)
	}
	current, max := 0, 0
	if it.Upd != nil {
		current = it.Upd.BuyRestrictionCurrent
		max = it.Upd.BuyRestrictionMax
	}
	if p != nil {
		if rec, ok := p.TraderPurchasesFor(o.User.ID)[assortID]; ok {
			current = rec.Count
		}
	}
	o.BuyRestrictionCurrent = current
	o.BuyRestrictionMax = max
	return Result{}
}

// SyncStackSize copies the assortment's live stock onto the offer root. A
// stock of zero is kept as zero: the entry is sold out. An assortment entry
// without an upd block counts as a single unit.
func (t *Tracker) SyncStackSize(o *model.Offer) Result {
	assortID := o.RootItem().ID
	it, ok := t.assorts.AssortItem(o.User.ID, assortID)
	if !ok {
		return missing(o.User.ID, assortID)
	}
	stock := 1
	if it.Upd != nil {
		stock = it.Upd.StackObjectsCount
	}
	o.Items[0].EnsureUpd().StackObjectsCount = stock
	return Result{}
}

func missing(traderID, assortID string) Result {
	return Result{Warning: &model.Warning{
		Code:   protocol.ErrInvalidTarget,
		Errmsg: fmt.Sprintf("assort %s of trader %s not found", assortID, traderID),
	}}
}
