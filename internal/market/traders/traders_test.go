package traders

import (
	"testing"

	"fleamarket.gg/internal/market/model"
)

const prapor = "54cb50c76803fa8b248b4571"

func load(t *testing.T) *Registry {
	t.Helper()
	r, err := Load("../../../configs/traders.json")
	if err != nil {
		t.Fatalf("load traders: %v", err)
	}
	return r
}

func TestLoad(t *testing.T) {
	r := load(t)
	if len(r.IDs()) != 3 || r.Digest == "" {
		t.Fatalf("ids=%v", r.IDs())
	}
	it, ok := r.AssortItem(prapor, "prapor_ak74n")
	if !ok || it.Upd.BuyRestrictionMax != 2 {
		t.Fatalf("assort item: %+v ok=%v", it, ok)
	}
	if _, ok := r.AssortItem(prapor, "nope"); ok {
		t.Fatalf("missing assort found")
	}
}

func TestDisplayableAssorts_QuestLock(t *testing.T) {
	r := load(t)
	p := &model.Profile{ID: "pmc"}
	a := r.DisplayableAssorts(p)[prapor]
	if !a.QuestLocked("prapor_mag") || a.QuestLocked("prapor_ps") {
		t.Fatalf("lock flags before quest")
	}
	p.Quests = map[string]string{"5936d90786f7742b1420ba5b": model.QuestSuccess}
	a = r.DisplayableAssorts(p)[prapor]
	if a.QuestLocked("prapor_mag") {
		t.Fatalf("lock should lift once quest is done")
	}
	orig, _ := r.Get(prapor)
	if orig.Assort.QuestLocked("prapor_mag") {
		t.Fatalf("registry assort must stay unflagged")
	}
}

func TestOffers(t *testing.T) {
	r := load(t)
	offers := r.Offers(1000, 3600, func(reqs []model.Requirement) float64 { return float64(reqs[0].Count) })
	if len(offers) != 6 {
		t.Fatalf("offers=%d want 6", len(offers))
	}
	var ak *model.Offer
	for _, o := range offers {
		if o.ID == "prapor_ak74n" {
			ak = o
		}
		if !o.IsTrader() || o.EndTime != 4600 {
			t.Fatalf("offer %s: %+v", o.ID, o)
		}
	}
	if ak == nil || len(ak.Items) != 2 || ak.LoyaltyLevel != 2 || ak.BuyRestrictionMax != 2 || ak.RequirementsCost != 41000 {
		t.Fatalf("ak offer: %+v", ak)
	}
}
