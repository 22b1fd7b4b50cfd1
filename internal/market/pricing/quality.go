package pricing

import (
	"math"

	"fleamarket.gg/internal/market/model"
)

// QualityMultiplier rates a listing's condition in (0, 1]. A weapon is rated
// by its root; anything else averages over every item.
func (e *Engine) QualityMultiplier(items []model.Item) float64 {
	if len(items) == 0 {
		return 1
	}
	if e.cats.Items.IsWeapon(items[0].Tpl) {
		return e.ItemQuality(items[0])
	}
	sum := 0.0
	for _, it := range items {
		sum += e.ItemQuality(it)
	}
	q := math.Round(sum/float64(len(items))*100) / 100
	return math.Min(q, 1)
}

// ItemQuality rates one item by the first wear kind it carries.
func (e *Engine) ItemQuality(it model.Item) float64 {
	if it.Upd == nil {
		return 1
	}
	def, _ := e.cats.Items.Get(it.Tpl)
	props := def.Props
	u := it.Upd

	q := 1.0
	switch {
	case u.MedKit != nil && props.MaxHpResource > 0:
		q = u.MedKit.HpResource / props.MaxHpResource
	case u.Repairable != nil:
		q = repairableQuality(props.MaxDurability, u.Repairable)
	case u.FoodDrink != nil && props.MaxResource > 0:
		q = u.FoodDrink.HpPercent / props.MaxResource
	case u.Key != nil && u.Key.NumberOfUsages > 0 && props.MaximumNumberOfUsage > 0:
		max := float64(props.MaximumNumberOfUsage)
		q = (max - float64(u.Key.NumberOfUsages)) / max
	case u.Resource != nil && props.MaxResource > 0:
		q = u.Resource.Value / props.MaxResource
	case u.RepairKit != nil && props.MaxRepairResource > 0:
		q = u.RepairKit.Resource / props.MaxRepairResource
	}
	if q <= 0 {
		q = 0.01
	}
	return q
}

func repairableQuality(templateMax float64, r *model.UpdRepairable) float64 {
	max := templateMax
	if max <= 0 {
		max = r.MaxDurability
	}
	if r.Durability > max {
		max = r.Durability
	}
	if max <= 0 {
		return 1
	}
	d := r.Durability / max
	if d <= 0 {
		return 0.01
	}
	return math.Sqrt(d)
}
