package main

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/market/controller"
	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/persistence/profilestore"
	"fleamarket.gg/internal/persistence/snapshot"
	"fleamarket.gg/internal/protocol"
	"fleamarket.gg/internal/transport/router"
)

const salewa = "544fb45d4bdc2dee738b4568"

func newRuntime(t *testing.T, snapDir string) *marketRuntime {
	t.Helper()
	store := profilestore.NewMemory()
	m, err := controller.Open(controller.Options{
		ConfigDir: "../../configs",
		Profiles:  store,
		Logger:    log.New(io.Discard, "", 0),
		Now:       func() int64 { return 100000 },
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return &marketRuntime{
		market:      m,
		profiles:    store,
		memProfiles: true,
		snapDir:     snapDir,
		log:         log.New(io.Discard, "", 0),
	}
}

func TestRuntime_SnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	rt := newRuntime(t, dir)
	if err := rt.restore(ctx, ""); err != nil {
		t.Fatalf("restore: %v", err)
	}
	seller := &model.Profile{
		ID:   "pmc",
		Info: model.Info{Level: 20},
		Inventory: model.Inventory{Stash: "stash", Items: []model.Item{
			{ID: "stash", Tpl: "stash"},
			{ID: "med", Tpl: salewa, ParentID: "stash", SlotID: "hideout", Upd: &model.Upd{StackObjectsCount: 1}},
			{ID: "cash", Tpl: catalogs.RUB, ParentID: "stash", SlotID: "hideout", Upd: &model.Upd{StackObjectsCount: 500000}},
		}},
	}
	if err := rt.profiles.Put(ctx, seller); err != nil {
		t.Fatalf("put: %v", err)
	}
	resp := rt.market.CreateOffer(ctx, "pmc", protocol.AddOfferRequest{
		Items:        []string{"med"},
		Requirements: []model.Requirement{{Tpl: catalogs.RUB, Count: 20000}},
	})
	if !resp.OK() {
		t.Fatalf("create: %+v", resp.Warnings)
	}

	path, err := rt.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("path=%s", path)
	}
	latest, err := snapshot.Latest(dir)
	if err != nil || latest != path {
		t.Fatalf("latest=%q err=%v", latest, err)
	}

	again := newRuntime(t, dir)
	if err := again.restore(ctx, latest); err != nil {
		t.Fatalf("restore snapshot: %v", err)
	}
	player := again.market.PlayerOffers()
	if len(player) != 1 || player[0].ID != resp.OfferID {
		t.Fatalf("player offers=%+v", player)
	}
	p, err := again.profiles.Get(ctx, "pmc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.RagfairInfo == nil || len(p.RagfairInfo.Offers) != 1 {
		t.Fatalf("profile ragfair=%+v", p.RagfairInfo)
	}
	if again.market.Pool.Len() <= 1 {
		t.Fatalf("trader offers missing: pool=%d", again.market.Pool.Len())
	}
}

func TestRuntime_StateAndMetrics(t *testing.T) {
	rt := newRuntime(t, t.TempDir())
	ctx := context.Background()
	if err := rt.restore(ctx, ""); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := rt.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	out, err := rt.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	st := out.(stateResponse)
	if st.SweepRuns != 1 || st.Offers == 0 || st.PlayerOffers != 0 || st.Index != nil {
		t.Fatalf("state=%+v", st)
	}

	rec := httptest.NewRecorder()
	rt.metricsHandler(router.New(rt.market, rt.log))(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`ragfair_offers{source="player"} 0`,
		"ragfair_sweep_runs_total 1",
		"# TYPE ragfair_requests_total counter",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "ragfair_index_queue_depth") {
		t.Fatalf("index metrics without an index")
	}
}
