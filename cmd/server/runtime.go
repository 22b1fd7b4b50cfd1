package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"fleamarket.gg/internal/market/controller"
	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/market/offers"
	"fleamarket.gg/internal/persistence/indexdb"
	persistlog "fleamarket.gg/internal/persistence/log"
	"fleamarket.gg/internal/persistence/profilestore"
	"fleamarket.gg/internal/persistence/snapshot"
)

// marketRuntime owns the background work around the market: the sweep loop,
// trader restocks and snapshots. It also backs the admin routes.
type marketRuntime struct {
	market   *controller.Market
	profiles *profilestore.Store
	// Profiles only live in memory and must travel with snapshots.
	memProfiles bool

	idx     *indexdb.SQLiteIndex
	audit   *persistlog.AuditLogger
	snapDir string
	log     *log.Logger

	snapMu sync.Mutex

	sweepRuns    atomic.Uint64
	sweepErrors  atomic.Uint64
	soldTotal    atomic.Uint64
	expiredTotal atomic.Uint64
	restocks     atomic.Uint64
	lastSweepMS  atomic.Int64
	lastSnapshot atomic.Int64
}

type stateResponse struct {
	Now          int64          `json:"now"`
	Offers       int            `json:"offers"`
	PlayerOffers int            `json:"player_offers"`
	Profiles     int            `json:"profiles"`
	SweepRuns    uint64         `json:"sweep_runs"`
	SoldTotal    uint64         `json:"sold_total"`
	ExpiredTotal uint64         `json:"expired_total"`
	LastSnapshot int64          `json:"last_snapshot"`
	Index        *indexdb.Stats `json:"index,omitempty"`
}

func (rt *marketRuntime) State(ctx context.Context) (any, error) {
	ids, err := rt.profiles.IDs(ctx)
	if err != nil {
		return nil, err
	}
	out := stateResponse{
		Now:          rt.market.Now(),
		Offers:       rt.market.Pool.Len(),
		PlayerOffers: len(rt.market.PlayerOffers()),
		Profiles:     len(ids),
		SweepRuns:    rt.sweepRuns.Load(),
		SoldTotal:    rt.soldTotal.Load(),
		ExpiredTotal: rt.expiredTotal.Load(),
		LastSnapshot: rt.lastSnapshot.Load(),
	}
	if rt.idx != nil {
		s := rt.idx.Stats()
		out.Index = &s
	}
	return out, nil
}

func (rt *marketRuntime) Sweep(ctx context.Context) (any, error) {
	stats, err := rt.sweep(ctx)
	return stats, err
}

func (rt *marketRuntime) sweep(ctx context.Context) (offers.SweepStats, error) {
	start := time.Now()
	stats, err := rt.market.Sweep(ctx)
	rt.lastSweepMS.Store(time.Since(start).Milliseconds())
	rt.sweepRuns.Add(1)
	rt.soldTotal.Add(uint64(stats.Sold))
	rt.expiredTotal.Add(uint64(stats.Expired))
	if err != nil || stats.Errors > 0 {
		rt.sweepErrors.Add(1)
	}
	return stats, err
}

// Snapshot writes the current market state and returns the file path.
func (rt *marketRuntime) Snapshot(ctx context.Context) (string, error) {
	rt.snapMu.Lock()
	defer rt.snapMu.Unlock()

	var profiles []*model.Profile
	if rt.memProfiles {
		all, err := rt.profiles.All(ctx)
		if err != nil {
			return "", fmt.Errorf("collect profiles: %w", err)
		}
		profiles = all
	}
	now := rt.market.Now()
	snap := snapshot.New(now, rt.market.PlayerOffers(), profiles)
	snap.CatalogDigest = rt.market.Catalogs.Digest()
	snap.TuningDigest = rt.market.Tuning.Digest()

	path := filepath.Join(rt.snapDir, snapshot.FileName(now))
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return "", err
	}
	rt.lastSnapshot.Store(now)
	rt.idx.RecordSnapshot(path, snap)
	return path, nil
}

// restore refills the offer pool. A profile database is authoritative for
// player offers; in memory mode the snapshot carries profiles and offers.
func (rt *marketRuntime) restore(ctx context.Context, snapPath string) error {
	var player []*model.Offer
	switch {
	case rt.memProfiles && snapPath != "":
		snap, err := snapshot.ReadSnapshot(snapPath)
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		if snap.CatalogDigest != "" && snap.CatalogDigest != rt.market.Catalogs.Digest() {
			rt.log.Printf("snapshot %s: catalog digest differs from loaded catalogs", filepath.Base(snapPath))
		}
		if snap.TuningDigest != "" && snap.TuningDigest != rt.market.Tuning.Digest() {
			rt.log.Printf("snapshot %s: tuning digest differs from loaded tuning", filepath.Base(snapPath))
		}
		for _, p := range snap.Profiles {
			if err := rt.profiles.Put(ctx, p); err != nil {
				return fmt.Errorf("restore profile %s: %w", p.ID, err)
			}
		}
		player = snap.Offers
		rt.lastSnapshot.Store(snap.Header.CreatedAt)
		rt.log.Printf("resumed from snapshot=%s profiles=%d", filepath.Base(snapPath), len(snap.Profiles))
	case !rt.memProfiles:
		if snapPath != "" {
			rt.log.Printf("snapshot %s ignored: profile database holds the offers", filepath.Base(snapPath))
		}
		all, err := rt.profiles.Offers(ctx)
		if err != nil {
			return fmt.Errorf("collect offers: %w", err)
		}
		player = all
	}
	traders := rt.market.Restore(player)
	rt.log.Printf("offer pool ready: player=%d trader=%d", len(player), traders)
	return nil
}

// run sweeps on the tuning interval, restocks traders once per offer
// lifetime and snapshots every snapEvery (zero disables periodic snapshots).
func (rt *marketRuntime) run(ctx context.Context, snapEvery time.Duration) {
	sweepT := time.NewTicker(rt.market.Tuning.SweepInterval())
	defer sweepT.Stop()

	var snapC <-chan time.Time
	if snapEvery > 0 {
		snapT := time.NewTicker(snapEvery)
		defer snapT.Stop()
		snapC = snapT.C
	}

	restockEvery := rt.market.Tuning.OfferDuration()
	lastRestock := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sweepT.C:
			stats, err := rt.sweep(ctx)
			if err != nil {
				rt.log.Printf("sweep: %v", err)
			} else if stats.Sold > 0 || stats.Expired > 0 || stats.Errors > 0 {
				rt.log.Printf("sweep: profiles=%d sold=%d expired=%d errors=%d", stats.Profiles, stats.Sold, stats.Expired, stats.Errors)
			}
			if time.Since(lastRestock) >= restockEvery {
				n := rt.market.RefreshTraderOffers()
				rt.restocks.Add(1)
				lastRestock = time.Now()
				rt.log.Printf("trader offers restocked: %d", n)
			}
		case <-snapC:
			if _, err := rt.Snapshot(ctx); err != nil {
				rt.log.Printf("snapshot write: %v", err)
			}
		}
	}
}
