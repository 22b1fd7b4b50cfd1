package pricing

import (
	"math"
	"testing"

	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/market/pool"
	"fleamarket.gg/internal/market/tuning"
)

const (
	ak74n   = "5644bd2b4bdc2d3b4c8b4572"
	mag     = "55d480c04bdc2d1d4e8b456a"
	salewa  = "544fb45d4bdc2dee738b4568"
	bitcoin = "59faff1d86f7746c51718c9c"
	tape    = "57347c2e24597744902c94a1"
	repair  = "5910968f86f77425cf569c32"
	key     = "5448ba0b4bdc2d02308b456c"
	water   = "5448fee04bdc2dbc018b4567"
)

func newEngine(t *testing.T) (*Engine, *pool.Pool) {
	t.Helper()
	cats, err := catalogs.Load("../../../configs/catalogs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	cfg, err := tuning.Load("../../../configs/ragfair.yaml")
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	p := pool.New()
	return New(cats, p, cfg), p
}

func listed(id, tpl string, cost float64, pack bool, stack int, reqs ...string) *model.Offer {
	o := &model.Offer{
		ID:               id,
		Items:            []model.Item{{ID: id + "-i", Tpl: tpl, Upd: &model.Upd{StackObjectsCount: stack}}},
		RequirementsCost: cost,
		SellInOnePiece:   pack,
	}
	for _, r := range reqs {
		o.Requirements = append(o.Requirements, model.Requirement{Tpl: r, Count: 1})
	}
	return o
}

func TestQuote_NoOffersUsesStaticPrice(t *testing.T) {
	e, _ := newEngine(t)
	q := e.Quote(salewa)
	if q.Avg != 26000 || q.Min != 26000 || q.Max != 26000 {
		t.Fatalf("quote=%+v", q)
	}
	// Not in prices.json, falls back to the handbook.
	q = e.Quote(repair)
	if q.Avg != 65000 || q.Min != q.Avg || q.Max != q.Avg {
		t.Fatalf("handbook quote=%+v", q)
	}
}

func TestQuote_ExcludesBarterOffers(t *testing.T) {
	e, p := newEngine(t)
	p.Add(listed("a", salewa, 20000, false, 1, catalogs.RUB))
	p.Add(listed("b", salewa, 30000, false, 1, catalogs.RUB))
	p.Add(listed("c", salewa, 900000, false, 1, catalogs.RUB, tape))

	q := e.Quote(salewa)
	if q.Avg != 25000 {
		t.Fatalf("avg=%v want 25000", q.Avg)
	}
	if q.Min != 20000 || q.Max != 30000 {
		t.Fatalf("min/max=%v/%v", q.Min, q.Max)
	}
}

func TestQuote_AllBarterFloorsCount(t *testing.T) {
	e, p := newEngine(t)
	p.Add(listed("a", salewa, 50000, false, 1, tape))
	q := e.Quote(salewa)
	if q.Avg != 0 || q.Min != 0 || q.Max != 0 {
		t.Fatalf("all-barter quote=%+v", q)
	}
}

func TestQuote_MinMaxAsymmetry(t *testing.T) {
	e, p := newEngine(t)
	// Strictly decreasing prices only ever move min; max stays at zero.
	p.Add(listed("a", salewa, 30000, false, 1, catalogs.RUB))
	p.Add(listed("b", salewa, 20000, false, 1, catalogs.RUB))
	q := e.Quote(salewa)
	if q.Min != 20000 || q.Max != 0 {
		t.Fatalf("min/max=%v/%v", q.Min, q.Max)
	}
}

func TestQuote_PackPricedPerItem(t *testing.T) {
	e, p := newEngine(t)
	p.Add(listed("a", tape, 40000, true, 4, catalogs.RUB))
	q := e.Quote(tape)
	if q.Avg != 10000 || q.Min != 10000 {
		t.Fatalf("pack quote=%+v", q)
	}
}

func TestFleaPriceAndRequirementsCost(t *testing.T) {
	e, _ := newEngine(t)
	if got := e.FleaPrice("unknown"); got != 1 {
		t.Fatalf("unknown flea price=%v", got)
	}
	cost := e.RequirementsCost([]model.Requirement{
		{Tpl: catalogs.RUB, Count: 5000},
		{Tpl: catalogs.USD, Count: 10},
		{Tpl: tape, Count: 2},
	})
	if cost != 5000+1170+24000 {
		t.Fatalf("requirements cost=%v", cost)
	}
}

func TestItemsPrice_WeaponUsesRootOnly(t *testing.T) {
	e, _ := newEngine(t)
	gun := []model.Item{{ID: "g", Tpl: ak74n}, {ID: "m", Tpl: mag, ParentID: "g"}}
	if got := e.ItemsPrice(gun); got != 35000 {
		t.Fatalf("weapon price=%v", got)
	}
	loose := []model.Item{{ID: "m", Tpl: mag}, {ID: "t", Tpl: tape}}
	if got := e.ItemsPrice(loose); got != 2400+12000 {
		t.Fatalf("sum price=%v", got)
	}
	// Bitcoin carries a 0.9 multiplier in ragfair.yaml.
	if got := e.ListingPrice([]model.Item{{ID: "b", Tpl: bitcoin}}); got != 225000 {
		t.Fatalf("bitcoin listing=%v", got)
	}
}

func TestItemQuality(t *testing.T) {
	e, _ := newEngine(t)
	cases := []struct {
		name string
		item model.Item
		want float64
	}{
		{"medkit", model.Item{Tpl: salewa, Upd: &model.Upd{MedKit: &model.UpdMedKit{HpResource: 200}}}, 0.5},
		{"repairable", model.Item{Tpl: ak74n, Upd: &model.Upd{Repairable: &model.UpdRepairable{Durability: 25, MaxDurability: 100}}}, 0.5},
		{"food", model.Item{Tpl: water, Upd: &model.Upd{FoodDrink: &model.UpdFoodDrink{HpPercent: 15}}}, 0.25},
		{"key", model.Item{Tpl: key, Upd: &model.Upd{Key: &model.UpdKey{NumberOfUsages: 10}}}, 0.75},
		{"repairkit", model.Item{Tpl: repair, Upd: &model.Upd{RepairKit: &model.UpdRepairKit{Resource: 50}}}, 0.25},
		{"empty medkit", model.Item{Tpl: salewa, Upd: &model.Upd{MedKit: &model.UpdMedKit{HpResource: 0}}}, 0.01},
		{"no upd", model.Item{Tpl: tape}, 1},
	}
	for _, c := range cases {
		if got := e.ItemQuality(c.item); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("%s: quality=%v want %v", c.name, got, c.want)
		}
	}
}

func TestQualityMultiplier_AveragesNonWeapons(t *testing.T) {
	e, _ := newEngine(t)
	items := []model.Item{
		{ID: "a", Tpl: salewa, Upd: &model.Upd{MedKit: &model.UpdMedKit{HpResource: 200}}},
		{ID: "b", Tpl: tape},
	}
	if got := e.QualityMultiplier(items); got != 0.75 {
		t.Fatalf("avg quality=%v", got)
	}
	gun := []model.Item{
		{ID: "g", Tpl: ak74n, Upd: &model.Upd{Repairable: &model.UpdRepairable{Durability: 100, MaxDurability: 100}}},
		{ID: "m", Tpl: mag, ParentID: "g", Upd: &model.Upd{Repairable: &model.UpdRepairable{Durability: 1, MaxDurability: 100}}},
	}
	if got := e.QualityMultiplier(gun); got != 1 {
		t.Fatalf("weapon quality=%v", got)
	}
}
