package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"fleamarket.gg/internal/market/model"
)

func TestWriteRead_PreservesOffersAndProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName(1700000000))

	offer := &model.Offer{
		ID:    "o1",
		IntID: 3,
		User:  model.User{ID: "pmc"},
		Items: []model.Item{{ID: "i1", Tpl: "tpl", Upd: &model.Upd{StackObjectsCount: 4, MedKit: &model.UpdMedKit{HpResource: 80}}}},
		Requirements: []model.Requirement{
			{Tpl: "5449016a4bdc2d6f028b456f", Count: 5000},
		},
		SellResults: []model.SellResult{{SellTime: 10, Amount: 2}},
	}
	profile := &model.Profile{ID: "pmc", Info: model.Info{Level: 20}}
	profile.EnsureRagfair().Rating = 0.5

	if err := WriteSnapshot(path, New(1700000000, []*model.Offer{offer}, []*model.Profile{profile})); err != nil {
		t.Fatalf("write: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if h.Version != Version || h.Offers != 1 || h.Profiles != 1 || h.CreatedAt != 1700000000 {
		t.Fatalf("header=%+v", h)
	}

	snap, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(snap.Offers) != 1 || snap.Offers[0].IntID != 3 || snap.Offers[0].Items[0].Upd.MedKit.HpResource != 80 {
		t.Fatalf("offers=%+v", snap.Offers)
	}
	if len(snap.Offers[0].SellResults) != 1 || snap.Offers[0].SellResults[0].Amount != 2 {
		t.Fatalf("sell results lost: %+v", snap.Offers[0].SellResults)
	}
	if len(snap.Profiles) != 1 || snap.Profiles[0].RagfairInfo.Rating != 0.5 {
		t.Fatalf("profiles=%+v", snap.Profiles)
	}
}

func TestLatest_PicksNewestSnapshot(t *testing.T) {
	dir := t.TempDir()
	if got, err := Latest(filepath.Join(dir, "missing")); err != nil || got != "" {
		t.Fatalf("missing dir: %q %v", got, err)
	}
	for _, ts := range []int64{100, 3000, 20} {
		if err := WriteSnapshot(filepath.Join(dir, FileName(ts)), New(ts, nil, nil)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}
	got, err := Latest(dir)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if filepath.Base(got) != FileName(3000) {
		t.Fatalf("latest=%s", got)
	}
}
