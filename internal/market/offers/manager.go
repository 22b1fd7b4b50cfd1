// Package offers runs the lifecycle of player offers: listing, withdrawal,
// extension and periodic settlement.
package offers

import (
	"log"
	"time"

	"github.com/google/uuid"

	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/market/sell"
	"fleamarket.gg/internal/market/tax"
	"fleamarket.gg/internal/market/tuning"
)

type Pricer interface {
	RequirementsCost(reqs []model.Requirement) float64
	ListingPrice(items []model.Item) float64
	QualityMultiplier(items []model.Item) float64
}

// Payer charges currency from a profile. Warnings mean nothing was taken.
type Payer interface {
	Pay(p *model.Profile, currency string, amount float64) []model.Warning
}

// Pool is the global offer pool mirror of every profile's listings.
type Pool interface {
	Add(o *model.Offer)
	Remove(id string) bool
	Update(id string, fn func(*model.Offer)) bool
}

const (
	EventCreated  = "created"
	EventRemoved  = "removed"
	EventExtended = "extended"
	EventSold     = "sold"
	EventExpired  = "expired"
)

// AuditEntry is one business event of the offer lifecycle.
type AuditEntry struct {
	Time      int64   `json:"time"`
	Event     string  `json:"event"`
	ProfileID string  `json:"profile_id"`
	OfferID   string  `json:"offer_id"`
	Tpl       string  `json:"tpl,omitempty"`
	Amount    int     `json:"amount,omitempty"`
	Roubles   float64 `json:"roubles,omitempty"`
	Fee       float64 `json:"fee,omitempty"`
}

type Auditor interface {
	Record(e AuditEntry)
}

// Auditors fans an entry out to several sinks, in order.
type Auditors []Auditor

func (as Auditors) Record(e AuditEntry) {
	for _, a := range as {
		if a != nil {
			a.Record(e)
		}
	}
}

type Deps struct {
	Config  tuning.Tuning
	Catalog *catalogs.Catalogs
	Prices  Pricer
	Sell    *sell.Simulator
	Tax     *tax.Calculator
	Wallet  Payer
	Pool    Pool
	Rand    sell.Rand
	Audit   Auditor
	Logger  *log.Logger
}

type Manager struct {
	cfg    tuning.Tuning
	cats   *catalogs.Catalogs
	prices Pricer
	sell   *sell.Simulator
	tax    *tax.Calculator
	wallet Payer
	pool   Pool
	rng    sell.Rand
	audit  Auditor
	logger *log.Logger

	// Now and NewID are replaceable for deterministic tests.
	Now   func() int64
	NewID func() string
}

func New(d Deps) *Manager {
	rng := d.Rand
	if rng == nil {
		rng = sell.NewLockedRand(time.Now().UnixNano())
	}
	return &Manager{
		cfg:    d.Config,
		cats:   d.Catalog,
		prices: d.Prices,
		sell:   d.Sell,
		tax:    d.Tax,
		wallet: d.Wallet,
		pool:   d.Pool,
		rng:    rng,
		audit:  d.Audit,
		logger: d.Logger,
		Now:    func() int64 { return time.Now().Unix() },
		NewID:  uuid.NewString,
	}
}

// Pending holds the pool writes and audit entries of a profile change.
// Nothing in it takes effect until Commit, which callers run only after the
// profile has been saved.
type Pending struct {
	ops    []func(Pool)
	events []AuditEntry
}

func (pd *Pending) add(o *model.Offer) {
	pd.ops = append(pd.ops, func(pl Pool) { pl.Add(o) })
}

func (pd *Pending) remove(id string) {
	pd.ops = append(pd.ops, func(pl Pool) { pl.Remove(id) })
}

func (pd *Pending) update(id string, fn func(*model.Offer)) {
	pd.ops = append(pd.ops, func(pl Pool) { pl.Update(id, fn) })
}

func (pd Pending) Empty() bool { return len(pd.ops) == 0 && len(pd.events) == 0 }

// Commit applies staged pool writes, then records staged audit entries,
// both in the order they were staged.
func (m *Manager) Commit(pd Pending) {
	for _, op := range pd.ops {
		op(m.pool)
	}
	if m.audit == nil {
		return
	}
	for _, e := range pd.events {
		m.audit.Record(e)
	}
}

// Outcome is what a mutating call hands back to the caller. Warnings are
// set when payment failed; the profile is untouched in that case.
type Outcome struct {
	Offer    *model.Offer
	Fee      float64
	Warnings []model.Warning
	Pending  Pending
}

func (m *Manager) record(pd *Pending, e AuditEntry) {
	if e.Time == 0 {
		e.Time = m.Now()
	}
	pd.events = append(pd.events, e)
}
