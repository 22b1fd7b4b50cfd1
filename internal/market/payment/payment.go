// Package payment charges currency from a profile's stash.
package payment

import (
	"fmt"
	"math"
	"sort"

	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/protocol"
)

type Wallet struct{}

func New() *Wallet { return &Wallet{} }

// Balance sums every stack of currency in the profile inventory.
func (w *Wallet) Balance(p *model.Profile, currency string) int {
	n := 0
	for _, it := range p.Inventory.Items {
		if it.Tpl == currency {
			n += it.StackCount()
		}
	}
	return n
}

// Pay removes amount of currency from the profile. It either takes the whole
// amount or nothing, and reports a shortfall as a warning.
func (w *Wallet) Pay(p *model.Profile, currency string, amount float64) []model.Warning {
	need := int(math.Ceil(amount))
	if need <= 0 {
		return nil
	}
	if have := w.Balance(p, currency); have < need {
		return []model.Warning{{
			Code:   protocol.ErrNoResource,
			Errmsg: fmt.Sprintf("not enough money: need %d, have %d", need, have),
		}}
	}

	// Drain the smallest stacks first so big stacks survive.
	idx := make([]int, 0)
	for i, it := range p.Inventory.Items {
		if it.Tpl == currency {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return p.Inventory.Items[idx[a]].StackCount() < p.Inventory.Items[idx[b]].StackCount()
	})
	empty := map[int]bool{}
	for _, i := range idx {
		if need == 0 {
			break
		}
		it := &p.Inventory.Items[i]
		have := it.StackCount()
		if have <= need {
			need -= have
			empty[i] = true
			continue
		}
		it.EnsureUpd().StackObjectsCount = have - need
		need = 0
	}
	if len(empty) > 0 {
		kept := p.Inventory.Items[:0]
		for i, it := range p.Inventory.Items {
			if !empty[i] {
				kept = append(kept, it)
			}
		}
		p.Inventory.Items = kept
	}
	return nil
}
