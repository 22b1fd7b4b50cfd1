package search

import (
	"io"
	"log"
	"sort"
	"testing"

	"pgregory.net/rapid"

	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/market/limits"
	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/market/pool"
	"fleamarket.gg/internal/market/pricing"
	"fleamarket.gg/internal/market/traders"
	"fleamarket.gg/internal/market/tuning"
)

const (
	ak74n  = "5644bd2b4bdc2d3b4c8b4572"
	mag    = "55d480c04bdc2d1d4e8b456a"
	salewa = "544fb45d4bdc2dee738b4568"
	tape   = "57347c2e24597744902c94a1"

	prapor    = "54cb50c76803fa8b248b4571"
	therapist = "54cb57776803fa99248b456e"

	weaponsCategory = "5b5f78dc86f77409407a7f8e"
	magQuest        = "5936d90786f7742b1420ba5b"
)

type env struct {
	engine  *Engine
	pool    *pool.Pool
	traders *traders.Registry
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cats, err := catalogs.Load("../../../configs/catalogs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	cfg, err := tuning.Load("../../../configs/ragfair.yaml")
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	reg, err := traders.Load("../../../configs/traders.json")
	if err != nil {
		t.Fatalf("load traders: %v", err)
	}
	p := pool.New()
	prices := pricing.New(cats, p, cfg)
	for _, o := range reg.Offers(1000, 3600, prices.RequirementsCost) {
		p.Add(o)
	}
	e := New(p, cats, prices, limits.New(reg), cfg, log.New(io.Discard, "", 0))
	e.Now = func() int64 { return 1000 }
	return &env{engine: e, pool: p, traders: reg}
}

func playerOffer(id, tpl string, cost float64, pack bool) *model.Offer {
	return &model.Offer{
		ID:               id,
		User:             model.User{ID: "seller", MemberType: model.MemberDefault},
		Root:             id + "-i",
		Items:            []model.Item{{ID: id + "-i", Tpl: tpl, ParentID: model.HideoutParent, Upd: &model.Upd{StackObjectsCount: 1}}},
		Requirements:     []model.Requirement{{Tpl: catalogs.RUB, Count: int(cost)}},
		RequirementsCost: cost,
		SellInOnePiece:   pack,
		StartTime:        1000,
		EndTime:          1000 + 12*3600,
	}
}

func buyer(level int) *model.Profile {
	return &model.Profile{ID: "pmc", Info: model.Info{Nickname: "buyer", Level: level}}
}

func (v *env) search(req *model.SearchRequest, p *model.Profile) Result {
	return v.engine.Search(req, v.traders.DisplayableAssorts(p), p)
}

func ids(offers []*model.Offer) []string {
	out := make([]string, 0, len(offers))
	for _, o := range offers {
		out = append(out, o.ID)
	}
	return out
}

func TestSearch_HandbookCategoryNarrowsToItems(t *testing.T) {
	v := newEnv(t)
	v.pool.Add(playerOffer("p-ak", ak74n, 30000, false))
	v.pool.Add(playerOffer("p-salewa", salewa, 20000, false))

	res := v.search(&model.SearchRequest{Limit: 15, HandbookID: weaponsCategory, SortType: model.SortByPrice}, buyer(20))
	got := ids(res.Offers)
	if len(got) != 2 || got[0] != "p-ak" || got[1] != "prapor_ak74n" {
		t.Fatalf("offers=%v", got)
	}
	if res.OffersCount != 2 {
		t.Fatalf("count=%d", res.OffersCount)
	}
}

func TestSearch_HandbookItemIdSearchesThatItem(t *testing.T) {
	v := newEnv(t)
	res := v.search(&model.SearchRequest{Limit: 15, HandbookID: salewa}, buyer(20))
	if got := ids(res.Offers); len(got) != 1 || got[0] != "therapist_salewa" {
		t.Fatalf("offers=%v", got)
	}
}

func TestSearch_PlayerOffersHiddenBelowUnlockLevel(t *testing.T) {
	v := newEnv(t)
	v.pool.Add(playerOffer("p-salewa", salewa, 20000, false))

	res := v.search(&model.SearchRequest{Limit: 15, HandbookID: salewa, UpdateOfferCount: true}, buyer(5))
	if got := ids(res.Offers); len(got) != 1 || got[0] != "therapist_salewa" {
		t.Fatalf("offers=%v", got)
	}
	if res.Categories[salewa] != 1 {
		t.Fatalf("categories=%v", res.Categories)
	}

	res = v.search(&model.SearchRequest{Limit: 15, HandbookID: salewa, UpdateOfferCount: true}, buyer(15))
	if len(res.Offers) != 2 || res.Categories[salewa] != 2 {
		t.Fatalf("unlocked offers=%v categories=%v", ids(res.Offers), res.Categories)
	}
}

func TestSearch_TraderOffersAnnotated(t *testing.T) {
	v := newEnv(t)
	p := buyer(20)
	p.TraderPurchasesFor(therapist)["therapist_salewa"] = model.PurchaseRecord{Count: 3}

	res := v.search(&model.SearchRequest{Limit: 15}, p)
	byID := map[string]*model.Offer{}
	for _, o := range res.Offers {
		byID[o.ID] = o
	}
	s := byID["therapist_salewa"]
	if s == nil || s.BuyRestrictionCurrent != 3 || s.BuyRestrictionMax != 5 {
		t.Fatalf("salewa offer=%+v", s)
	}
	if s.Items[0].StackCount() != 50 {
		t.Fatalf("stack=%d", s.Items[0].StackCount())
	}
	if m := byID["prapor_mag"]; m == nil || !m.Locked {
		t.Fatalf("quest gated offer should be locked: %+v", m)
	}
	if byID["prapor_ps"].Locked {
		t.Fatalf("ungated offer locked")
	}

	p.Quests = map[string]string{magQuest: model.QuestSuccess}
	res = v.search(&model.SearchRequest{Limit: 15, HandbookID: mag}, p)
	for _, o := range res.Offers {
		if o.Locked {
			t.Fatalf("offer %s still locked after quest", o.ID)
		}
	}
}

func TestSearch_IndexesAssignedAndResolvable(t *testing.T) {
	v := newEnv(t)
	res := v.search(&model.SearchRequest{Limit: 100, SortType: model.SortByPrice, SortDirection: model.SortDescending}, buyer(20))
	if len(res.Offers) != 6 {
		t.Fatalf("offers=%v", ids(res.Offers))
	}
	for i := 1; i < len(res.Offers); i++ {
		if res.Offers[i-1].RequirementsCost < res.Offers[i].RequirementsCost {
			t.Fatalf("not descending at %d: %v", i, ids(res.Offers))
		}
	}
	for _, o := range res.Offers {
		if o.Items[0].ParentID != "" {
			t.Fatalf("root of %s still parented to %q", o.ID, o.Items[0].ParentID)
		}
		got, ok := v.pool.GetByIntID(o.IntID)
		if !ok || got.ID != o.ID {
			t.Fatalf("intId %d does not resolve to %s", o.IntID, o.ID)
		}
	}
}

func TestSearch_RequiredSearch(t *testing.T) {
	v := newEnv(t)
	barter := playerOffer("p-barter", salewa, 12000, false)
	barter.Requirements = []model.Requirement{{Tpl: tape, Count: 1}}
	v.pool.Add(barter)

	res := v.search(&model.SearchRequest{Limit: 15, NeededSearchID: tape, UpdateOfferCount: true}, buyer(20))
	got := ids(res.Offers)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "p-barter" || got[1] != "prapor_mag" {
		t.Fatalf("offers=%v", got)
	}
	if res.Categories[salewa] != 1 || res.Categories[mag] != 1 || len(res.Categories) != 2 {
		t.Fatalf("categories=%v", res.Categories)
	}
}

func TestSearch_LinkedSearch(t *testing.T) {
	v := newEnv(t)
	res := v.search(&model.SearchRequest{Limit: 15, LinkedSearchID: ak74n}, buyer(20))
	got := ids(res.Offers)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "prapor_mag" || got[1] != "prapor_ps" {
		t.Fatalf("offers=%v", got)
	}
}

func TestSearch_RemoveBarteringAndCurrency(t *testing.T) {
	v := newEnv(t)
	res := v.search(&model.SearchRequest{Limit: 15, RemoveBartering: true}, buyer(20))
	for _, o := range res.Offers {
		if o.ID == "prapor_mag" {
			t.Fatalf("barter offer kept")
		}
	}
	res = v.search(&model.SearchRequest{Limit: 15, Currency: model.CurrencyUSD}, buyer(20))
	for _, o := range res.Offers {
		if tpl := o.Requirements[0].Tpl; catalogs.IsMoney(tpl) && tpl != catalogs.USD {
			t.Fatalf("offer %s priced in %s", o.ID, tpl)
		}
	}
}

func TestSearch_OwnerFilter(t *testing.T) {
	v := newEnv(t)
	v.pool.Add(playerOffer("p-salewa", salewa, 20000, false))

	res := v.search(&model.SearchRequest{Limit: 15, OfferOwnerType: model.OwnerPlayers}, buyer(20))
	if got := ids(res.Offers); len(got) != 1 || got[0] != "p-salewa" {
		t.Fatalf("players=%v", got)
	}
	res = v.search(&model.SearchRequest{Limit: 15, OfferOwnerType: model.OwnerTraders}, buyer(20))
	if len(res.Offers) != 6 {
		t.Fatalf("traders=%v", ids(res.Offers))
	}
}

func TestSearch_BuildPicksCheapestPurchasable(t *testing.T) {
	v := newEnv(t)
	v.pool.Add(playerOffer("p-salewa-cheap", salewa, 20000, false))
	v.pool.Add(playerOffer("p-salewa-pack", salewa, 100, true))
	v.pool.Add(playerOffer("p-salewa-dear", salewa, 30000, false))

	req := &model.SearchRequest{
		Limit:      1,
		BuildCount: 1,
		BuildItems: map[string]int{salewa: 1, ak74n: 1},
	}
	res := v.search(req, buyer(20))
	// The rifle needs loyalty 2; the pack is never offered for builds.
	if got := ids(res.Offers); len(got) != 1 || got[0] != "p-salewa-cheap" {
		t.Fatalf("offers=%v", got)
	}

	p := buyer(20)
	p.TraderLoyalty = map[string]int{prapor: 2}
	res = v.search(req, p)
	if len(res.Offers) != 2 {
		t.Fatalf("build ignores limit and should list both keys: %v", ids(res.Offers))
	}
}

func TestSearch_BuildSkipsTraderAtBuyLimit(t *testing.T) {
	v := newEnv(t)
	p := buyer(20)
	p.TraderPurchasesFor(therapist)["therapist_salewa"] = model.PurchaseRecord{Count: 5}

	res := v.search(&model.SearchRequest{BuildCount: 1, BuildItems: map[string]int{salewa: 1}}, p)
	if len(res.Offers) != 0 {
		t.Fatalf("offers=%v", ids(res.Offers))
	}
}

func TestSearch_OneHourExpiration(t *testing.T) {
	v := newEnv(t)
	soon := playerOffer("p-soon", salewa, 20000, false)
	soon.EndTime = 1000 + 1800
	v.pool.Add(soon)
	v.pool.Add(playerOffer("p-later", salewa, 20000, false))

	res := v.search(&model.SearchRequest{Limit: 15, OneHourExpiration: true, OfferOwnerType: model.OwnerPlayers}, buyer(20))
	if got := ids(res.Offers); len(got) != 1 || got[0] != "p-soon" {
		t.Fatalf("offers=%v", got)
	}
}

func TestSearch_ConditionRange(t *testing.T) {
	v := newEnv(t)
	worn := playerOffer("p-worn", salewa, 5000, false)
	worn.Items[0].Upd.MedKit = &model.UpdMedKit{HpResource: 100}
	v.pool.Add(worn)
	v.pool.Add(playerOffer("p-new", salewa, 20000, false))

	res := v.search(&model.SearchRequest{Limit: 15, ConditionFrom: 50, ConditionTo: 100, OfferOwnerType: model.OwnerPlayers}, buyer(20))
	if got := ids(res.Offers); len(got) != 1 || got[0] != "p-new" {
		t.Fatalf("offers=%v", got)
	}
}

func TestPaginate_Bounds(t *testing.T) {
	offers := make([]*model.Offer, 5)
	for i := range offers {
		offers[i] = &model.Offer{ID: string(rune('a' + i))}
	}
	if got := paginate(offers, 1, 2); len(got) != 2 || got[0].ID != "c" {
		t.Fatalf("page 1=%v", ids(got))
	}
	if got := paginate(offers, 2, 2); len(got) != 1 || got[0].ID != "e" {
		t.Fatalf("last page=%v", ids(got))
	}
	if got := paginate(offers, 3, 2); len(got) != 0 {
		t.Fatalf("past end=%v", ids(got))
	}
}

func TestSearch_PaginationAndIndexProperties(t *testing.T) {
	v := newEnv(t)
	for i := 0; i < 9; i++ {
		v.pool.Add(playerOffer("p-"+string(rune('a'+i)), salewa, float64(1000*(i+1)), false))
	}
	p := buyer(20)

	rapid.Check(t, func(rt *rapid.T) {
		page := rapid.IntRange(0, 6).Draw(rt, "page")
		limit := rapid.IntRange(0, 20).Draw(rt, "limit")
		sortType := rapid.SampledFrom([]int{
			model.SortByID, model.SortByBarter, model.SortByRating,
			model.SortByTitle, model.SortByPrice, model.SortByExpiry,
		}).Draw(rt, "sort")
		dir := rapid.IntRange(0, 1).Draw(rt, "dir")

		res := v.search(&model.SearchRequest{Page: page, Limit: limit, SortType: sortType, SortDirection: dir}, p)
		if len(res.Offers) > limit {
			rt.Fatalf("len=%d limit=%d", len(res.Offers), limit)
		}
		if res.OffersCount != 15 {
			rt.Fatalf("count=%d", res.OffersCount)
		}

		full := v.search(&model.SearchRequest{Limit: 1000, SortType: sortType, SortDirection: dir}, p)
		seen := map[int]bool{}
		for _, o := range full.Offers {
			if o.IntID < 1 || o.IntID > len(full.Offers) || seen[o.IntID] {
				rt.Fatalf("intId %d out of range or repeated", o.IntID)
			}
			seen[o.IntID] = true
		}
	})
}

func TestSearch_BuildTraderGates(t *testing.T) {
	cases := []struct {
		name  string
		setup func(v *env, p *model.Profile)
		want  string
	}{
		{
			name:  "purchasable",
			setup: func(*env, *model.Profile) {},
			want:  "therapist_salewa",
		},
		{
			name: "sold out",
			setup: func(v *env, _ *model.Profile) {
				tr, _ := v.traders.Get(therapist)
				for i := range tr.Assort.Items {
					if tr.Assort.Items[i].ID == "therapist_salewa" {
						tr.Assort.Items[i].Upd.StackObjectsCount = 0
					}
				}
			},
			want: "p-salewa",
		},
		{
			name: "buy limit reached",
			setup: func(_ *env, p *model.Profile) {
				p.TraderPurchasesFor(therapist)["therapist_salewa"] = model.PurchaseRecord{Count: 5}
			},
			want: "p-salewa",
		},
		{
			name: "quest locked",
			setup: func(v *env, _ *model.Profile) {
				tr, _ := v.traders.Get(therapist)
				tr.QuestAssort = map[string]string{"therapist_salewa": magQuest}
			},
			want: "p-salewa",
		},
		{
			name: "loyalty too low",
			setup: func(v *env, _ *model.Profile) {
				v.pool.Update("therapist_salewa", func(o *model.Offer) { o.LoyaltyLevel = 3 })
			},
			want: "p-salewa",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := newEnv(t)
			v.pool.Add(playerOffer("p-salewa", salewa, 30000, false))
			p := buyer(20)
			tc.setup(v, p)

			res := v.search(&model.SearchRequest{BuildCount: 1, BuildItems: map[string]int{salewa: 1}}, p)
			if got := ids(res.Offers); len(got) != 1 || got[0] != tc.want {
				t.Fatalf("offers=%v want %s", got, tc.want)
			}
		})
	}
}

func TestSearch_SoldOutTraderShowsZeroStack(t *testing.T) {
	v := newEnv(t)
	tr, _ := v.traders.Get(prapor)
	for i := range tr.Assort.Items {
		if tr.Assort.Items[i].ID == "prapor_ps" {
			tr.Assort.Items[i].Upd.StackObjectsCount = 0
		}
	}
	res := v.search(&model.SearchRequest{Limit: 15}, buyer(20))
	for _, o := range res.Offers {
		if o.ID == "prapor_ps" {
			if o.Items[0].Upd == nil || o.Items[0].Upd.StackObjectsCount != 0 {
				t.Fatalf("sold out offer stack=%+v", o.Items[0].Upd)
			}
			return
		}
	}
	t.Fatalf("prapor_ps missing: %v", ids(res.Offers))
}
