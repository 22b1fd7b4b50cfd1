package catalogs

import (
	"sort"
	"testing"
)

const (
	ak74n  = "5644bd2b4bdc2d3b4c8b4572"
	mag    = "55d480c04bdc2d1d4e8b456a"
	ammoPS = "56dff3afd2720bba668b4567"
	repair = "5910968f86f77425cf569c32"
)

func load(t *testing.T) *Catalogs {
	t.Helper()
	c, err := Load("../../../configs/catalogs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return c
}

func TestLoad_DigestsAndDefs(t *testing.T) {
	c := load(t)
	if c.Items.Digest == "" || c.Handbook.Digest == "" || c.Prices.Digest == "" {
		t.Fatalf("expected digests")
	}
	if !c.Items.IsWeapon(ak74n) {
		t.Fatalf("ak74n should be a weapon")
	}
	if c.Items.IsWeapon(mag) {
		t.Fatalf("magazine is not a weapon")
	}
	if c.Items.Sellable(RUB) {
		t.Fatalf("money must not be listed")
	}
	if got := c.Items.StackMax(ammoPS); got != 60 {
		t.Fatalf("ammo stack max=%d", got)
	}
}

func TestLinked_Bidirectional(t *testing.T) {
	c := load(t)
	linked := c.Items.Linked(ak74n)
	if !sort.StringsAreSorted(linked) || len(linked) != 2 {
		t.Fatalf("ak linked=%v", linked)
	}
	found := false
	for _, tpl := range c.Items.Linked(ammoPS) {
		if tpl == ak74n {
			found = true
		}
	}
	if !found {
		t.Fatalf("ammo should link back to the rifle")
	}
}

func TestHandbook_CategoryItemsRecursive(t *testing.T) {
	c := load(t)
	barter := c.Handbook.CategoryItems("5b47574386f77428ca22b33e")
	if len(barter) != 2 {
		t.Fatalf("barter items=%v", barter)
	}
	if !c.Handbook.IsCategory("5b47574386f77428ca22b2f1") || c.Handbook.IsCategory(ak74n) {
		t.Fatalf("category detection")
	}
	if got := c.Handbook.ItemCategory(ak74n); got != "5b5f78fc86f77409407a7f90" {
		t.Fatalf("ak category=%s", got)
	}
}

func TestFleaPrice_FallsBackToHandbook(t *testing.T) {
	c := load(t)
	if p, _ := c.FleaPrice(ak74n); p != 35000 {
		t.Fatalf("ak price=%v", p)
	}
	if p, ok := c.FleaPrice(repair); !ok || p != 65000 {
		t.Fatalf("repair kit price=%v ok=%v", p, ok)
	}
	if _, ok := c.FleaPrice("missing"); ok {
		t.Fatalf("missing tpl should not be priced")
	}
}

func TestCurrencyConversion(t *testing.T) {
	c := load(t)
	if got := c.InRoubles(100, USD); got != 11700 {
		t.Fatalf("usd->rub=%v", got)
	}
	if got := c.InRoubles(500, RUB); got != 500 {
		t.Fatalf("rub->rub=%v", got)
	}
	if got := c.FromRoubles(13200, EUR); got != 100 {
		t.Fatalf("rub->eur=%v", got)
	}
	if !IsMoney(EUR) || IsMoney(ak74n) {
		t.Fatalf("IsMoney")
	}
	if CurrencyTpl(2) != USD || CurrencyTpl(0) != "" {
		t.Fatalf("CurrencyTpl")
	}
}
