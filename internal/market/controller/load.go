package controller

import (
	"fmt"
	"log"
	"path/filepath"

	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/market/limits"
	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/market/offers"
	"fleamarket.gg/internal/market/payment"
	"fleamarket.gg/internal/market/pool"
	"fleamarket.gg/internal/market/pricing"
	"fleamarket.gg/internal/market/search"
	"fleamarket.gg/internal/market/sell"
	"fleamarket.gg/internal/market/tax"
	"fleamarket.gg/internal/market/traders"
	"fleamarket.gg/internal/market/tuning"
)

// Options configures Open. ConfigDir holds ragfair.yaml, traders.json and
// the catalogs/ directory.
type Options struct {
	ConfigDir string
	// TuningPath overrides ConfigDir/ragfair.yaml when set.
	TuningPath string

	Profiles Profiles
	Audit    offers.Auditor
	Rand     sell.Rand
	Logger   *log.Logger
	// Now replaces the wall clock of every engine.
	Now func() int64
}

// Market bundles the loaded reference data with the controller built on it.
type Market struct {
	*Controller

	Catalogs *catalogs.Catalogs
	Traders  *traders.Registry
	Tuning   tuning.Tuning
	Pool     *pool.Pool
	Offers   *offers.Manager
}

// Open loads every catalog from opts.ConfigDir and wires the engines.
func Open(opts Options) (*Market, error) {
	if opts.Profiles == nil {
		return nil, fmt.Errorf("controller: no profile store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	tunePath := opts.TuningPath
	if tunePath == "" {
		tunePath = filepath.Join(opts.ConfigDir, "ragfair.yaml")
	}
	cfg, err := tuning.Load(tunePath)
	if err != nil {
		return nil, fmt.Errorf("load tuning: %w", err)
	}
	cats, err := catalogs.Load(filepath.Join(opts.ConfigDir, "catalogs"))
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}
	reg, err := traders.Load(filepath.Join(opts.ConfigDir, "traders.json"))
	if err != nil {
		return nil, fmt.Errorf("load traders: %w", err)
	}

	pl := pool.New()
	prices := pricing.New(cats, pl, cfg)
	calc, err := tax.NewCalculator(tax.CommunityPolicy{
		Items:              &cats.Items,
		Prices:             prices,
		ItemPercent:        cfg.Tax.CommunityItemPercent,
		RequirementPercent: cfg.Tax.CommunityRequirementPercent,
	}, cfg.Tax.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("tax: %w", err)
	}
	mgr := offers.New(offers.Deps{
		Config:  cfg,
		Catalog: cats,
		Prices:  prices,
		Sell:    sell.New(cfg),
		Tax:     calc,
		Wallet:  payment.New(),
		Pool:    pl,
		Rand:    opts.Rand,
		Audit:   opts.Audit,
		Logger:  logger,
	})
	se := search.New(pl, cats, prices, limits.New(reg), cfg, logger)
	c := New(Deps{
		Config:   cfg,
		Traders:  reg,
		Pool:     pl,
		Prices:   prices,
		Tax:      calc,
		Search:   se,
		Offers:   mgr,
		Profiles: opts.Profiles,
		Logger:   logger,
	})
	if opts.Now != nil {
		c.Now = opts.Now
		mgr.Now = opts.Now
		se.Now = opts.Now
	}
	return &Market{
		Controller: c,
		Catalogs:   cats,
		Traders:    reg,
		Tuning:     cfg,
		Pool:       pl,
		Offers:     mgr,
	}, nil
}

// PlayerOffers returns every non-trader offer in the pool.
func (m *Market) PlayerOffers() []*model.Offer {
	var out []*model.Offer
	for _, o := range m.Pool.All() {
		if !o.IsTrader() {
			out = append(out, o)
		}
	}
	return out
}

// Restore refills the pool with player offers and fresh trader offers.
func (m *Market) Restore(player []*model.Offer) int {
	m.Pool.Replace(player)
	return m.RefreshTraderOffers()
}
