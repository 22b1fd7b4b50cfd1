package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/market/offers"
	persistlog "fleamarket.gg/internal/persistence/log"
)

const salewa = "544fb45d4bdc2dee738b4568"

func TestAdminClient(t *testing.T) {
	var sweeps int
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/admin/v1/sweep" && r.Method == http.MethodPost:
			sweeps++
			_, _ = rw.Write([]byte(`{"Sold":1}`))
		case r.URL.Path == "/client/ragfair/prices":
			_, _ = rw.Write([]byte(`{"type":"RAGFAIR_PRICES","ok":true,"body":{"` + salewa + `":24000}}`))
		case r.URL.Path == "/client/ragfair/itemMarketPrice":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["templateId"] != salewa {
				rw.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = rw.Write([]byte(`{"ok":true}`))
		default:
			rw.WriteHeader(http.StatusForbidden)
			_, _ = rw.Write([]byte(`{"ok":false}`))
		}
	}))
	defer srv.Close()

	c := newAdminClient(srv.URL+"/", 5*time.Second)
	if out, err := c.Sweep(); err != nil || sweeps != 1 || string(out) != `{"Sold":1}` {
		t.Fatalf("sweep out=%s err=%v sweeps=%d", out, err, sweeps)
	}
	prices, err := c.Prices()
	if err != nil || prices[salewa] != 24000 {
		t.Fatalf("prices=%v err=%v", prices, err)
	}
	if _, err := c.MarketPrice(salewa); err != nil {
		t.Fatalf("market price: %v", err)
	}
	if _, err := c.State(); err == nil {
		t.Fatalf("expected forbidden state to fail")
	}
}

func TestPriceReport(t *testing.T) {
	cats, err := catalogs.Load("../../configs/catalogs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	rows := priceRows(map[string]float64{salewa: 24000, "unknown_tpl": 5}, cats)
	if len(rows) != 2 {
		t.Fatalf("rows=%+v", rows)
	}
	var med priceRow
	for _, r := range rows {
		if r.Tpl == salewa {
			med = r
		}
	}
	if med.Name == salewa || med.Handbook <= 0 || med.Ratio() <= 0 {
		t.Fatalf("salewa row=%+v", med)
	}

	path := filepath.Join(t.TempDir(), "prices.xlsx")
	if err := writePriceReport(path, rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	got, err := f.GetRows(priceSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(got) != 3 || got[0][0] != "tpl" {
		t.Fatalf("sheet=%v", got)
	}
	seen := map[string]bool{}
	for _, r := range got[1:] {
		seen[r[0]] = true
	}
	if !seen[salewa] || !seen["unknown_tpl"] {
		t.Fatalf("sheet=%v", got)
	}
}

func TestReadAudit(t *testing.T) {
	dir := t.TempDir()
	l := persistlog.NewAuditLogger(dir)
	now := time.Now().Unix()
	l.Record(offers.AuditEntry{Time: now, Event: offers.EventCreated, ProfileID: "pmc", OfferID: "o1", Tpl: salewa, Amount: 1, Fee: 100})
	l.Record(offers.AuditEntry{Time: now, Event: offers.EventSold, ProfileID: "pmc", OfferID: "o1", Tpl: salewa, Amount: 1, Roubles: 20000})
	l.Record(offers.AuditEntry{Time: now, Event: offers.EventCreated, ProfileID: "scav", OfferID: "o2", Tpl: "other", Amount: 2, Fee: 50})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	all, err := readAudit(dir, auditFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("all=%d err=%v", len(all), err)
	}
	mine, _ := readAudit(dir, auditFilter{ProfileID: "pmc", Event: offers.EventCreated})
	if len(mine) != 1 || mine[0].OfferID != "o1" {
		t.Fatalf("filtered=%+v", mine)
	}
	later, _ := readAudit(dir, auditFilter{Since: now + 1})
	if len(later) != 0 {
		t.Fatalf("since filter kept %d", len(later))
	}

	sum := summarize(all)
	if len(sum) != 2 || sum[0].Event != offers.EventCreated || sum[0].Count != 2 || sum[0].Fees != 150 || sum[1].Roubles != 20000 {
		t.Fatalf("summary=%+v", sum)
	}
}
