package tax

import (
	"math"

	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/market/model"
)

// Pricer values a single tpl on the market.
type Pricer interface {
	FleaPrice(tpl string) float64
}

// CommunityPolicy is the fee curve the game client shows: each side of the
// trade is taxed and the side that is worth more is penalized harder.
type CommunityPolicy struct {
	Items              *catalogs.ItemCatalog
	Prices             Pricer
	ItemPercent        float64
	RequirementPercent float64
}

func (c CommunityPolicy) Fee(in Input) float64 {
	root := in.Items[0]
	itemWorth := c.worth(in.Items, in.Quantity)
	reqPrice := in.RequirementsValue
	if !in.Pack {
		reqPrice *= float64(in.Quantity)
	}
	if itemWorth <= 0 || reqPrice <= 0 {
		return 0
	}

	itemMult := math.Log10(itemWorth / reqPrice)
	reqMult := math.Log10(reqPrice / itemWorth)
	if reqPrice >= itemWorth {
		reqMult = math.Pow(reqMult, 1.08)
	} else {
		itemMult = math.Pow(itemMult, 1.08)
	}
	itemMult = math.Pow(4, itemMult)
	reqMult = math.Pow(4, reqMult)

	fee := itemWorth*c.ItemPercent/100*itemMult + reqPrice*c.RequirementPercent/100*reqMult

	// Negative commission bonuses are hideout discounts.
	if in.Profile != nil {
		fee *= 1 + in.Profile.BonusSum(model.BonusRagfairCommission)/100
	}
	fee *= c.Items.CommissionModifier(root.Tpl)
	return math.Round(fee)
}

// worth values the root times quantity plus everything attached to it.
func (c CommunityPolicy) worth(items []model.Item, quantity int) float64 {
	total := c.itemWorth(items[0]) * float64(quantity)
	ids := map[string]bool{items[0].ID: true}
	for grew := true; grew; {
		grew = false
		for _, it := range items[1:] {
			if ids[it.ID] || !ids[it.ParentID] {
				continue
			}
			ids[it.ID] = true
			total += c.itemWorth(it) * float64(it.StackCount())
			grew = true
		}
	}
	return total
}

func (c CommunityPolicy) itemWorth(it model.Item) float64 {
	w := c.Prices.FleaPrice(it.Tpl)
	if it.Upd == nil {
		return w
	}
	def, _ := c.Items.Get(it.Tpl)
	p := def.Props
	u := it.Upd
	if u.Key != nil && p.MaximumNumberOfUsage > 0 {
		max := float64(p.MaximumNumberOfUsage)
		w = w / max * (max - float64(u.Key.NumberOfUsages))
	}
	if u.Resource != nil && p.MaxResource > 0 {
		w = w*0.1 + w*0.9/p.MaxResource*u.Resource.Value
	}
	if u.MedKit != nil && p.MaxHpResource > 0 {
		w = w / p.MaxHpResource * u.MedKit.HpResource
	}
	if u.FoodDrink != nil && p.MaxResource > 0 {
		w = w / p.MaxResource * u.FoodDrink.HpPercent
	}
	if u.Repairable != nil {
		max := p.MaxDurability
		if max <= 0 {
			max = u.Repairable.MaxDurability
		}
		if max > 0 {
			w *= 0.01 + 0.99*math.Min(u.Repairable.Durability/max, 1)
		}
	}
	return w
}
