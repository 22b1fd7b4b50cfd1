package offers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"fleamarket.gg/internal/market/inventory"
	"fleamarket.gg/internal/market/model"
)

// Settlement summarizes one settlement pass over a profile.
type Settlement struct {
	Sold    int
	Expired int
	Pending Pending
}

func (s Settlement) Changed() bool { return s.Sold > 0 || s.Expired > 0 }

// Settle pays out every sale whose time has come and returns expired
// listings to the player. Running it again at the same time changes nothing.
// Pool and audit effects are staged on the returned Settlement.
func (m *Manager) Settle(p *model.Profile) Settlement {
	var s Settlement
	if p.RagfairInfo == nil {
		return s
	}
	now := m.Now()

	for _, o := range append([]*model.Offer(nil), p.RagfairInfo.Offers...) {
		for len(o.SellResults) > 0 && o.SellResults[0].SellTime <= now {
			r := o.SellResults[0]
			o.SellResults = o.SellResults[1:]

			total, bought := 1, 1
			if !o.SellInOnePiece {
				total = o.Quantity()
				bought = r.Amount
			}
			m.addRating(p, o.SummaryCost/float64(total)*float64(bought))
			m.payOut(&s.Pending, p, o, bought, r.SellTime)
			s.Sold += bought

			if o.SellInOnePiece || !takeUnits(o, bought) {
				m.deleteOffer(&s.Pending, p, o.ID)
				break
			}
			synced := o.Clone()
			s.Pending.update(o.ID, func(po *model.Offer) {
				po.Items = synced.Items
				po.SellResults = synced.SellResults
			})
		}
	}

	for _, o := range append([]*model.Offer(nil), p.RagfairInfo.Offers...) {
		if o.EndTime >= now {
			continue
		}
		m.deleteOffer(&s.Pending, p, o.ID)
		p.Mail = append(p.Mail, model.MailMessage{
			ID:        m.NewID(),
			Kind:      model.MailOfferExpired,
			OfferID:   o.ID,
			Items:     model.CloneItems(o.Items),
			Timestamp: now,
		})
		m.record(&s.Pending, AuditEntry{Time: now, Event: EventExpired, ProfileID: p.ID, OfferID: o.ID, Tpl: o.RootTpl(), Amount: o.Quantity()})
		s.Expired++
	}
	return s
}

func (m *Manager) addRating(p *model.Profile, amount float64) {
	rf := p.EnsureRagfair()
	rf.IsRatingGrowing = true
	if math.IsNaN(amount) {
		m.logger.Printf("offers: %s rating increase is NaN, skipped", p.ID)
		return
	}
	rf.Rating += m.cfg.Sell.Reputation.Gain * amount
}

// payOut mails the seller every requirement times the bought amount, split
// into stacks the item allows.
func (m *Manager) payOut(pd *Pending, p *model.Profile, o *model.Offer, bought int, at int64) {
	var items []model.Item
	for _, r := range o.Requirements {
		items = append(items, inventory.SplitStacks(r.Tpl, r.Count*bought, m.cats.Items.StackMax(r.Tpl), m.NewID)...)
	}
	p.Mail = append(p.Mail, model.MailMessage{
		ID:        m.NewID(),
		Kind:      model.MailOfferSold,
		OfferID:   o.ID,
		Items:     items,
		Timestamp: at,
	})
	m.record(pd, AuditEntry{
		Time:      at,
		Event:     EventSold,
		ProfileID: p.ID,
		OfferID:   o.ID,
		Tpl:       o.RootTpl(),
		Amount:    bought,
		Roubles:   o.SummaryCost / float64(maxInt(o.Quantity(), 1)) * float64(bought),
	})
}

// takeUnits removes n units from the offer's root items in listing order,
// dropping a root with its children once its stack is used up. It reports
// whether anything is left to sell.
func takeUnits(o *model.Offer, n int) bool {
	for _, root := range o.RootItems() {
		if n <= 0 {
			break
		}
		stack := root.StackCount()
		if stack > n {
			i := inventory.Find(o.Items, root.ID)
			o.Items[i].EnsureUpd().StackObjectsCount = stack - n
			n = 0
			break
		}
		n -= stack
		drop := map[string]bool{}
		for _, it := range inventory.WithChildren(o.Items, root.ID) {
			drop[it.ID] = true
		}
		kept := o.Items[:0]
		for _, it := range o.Items {
			if !drop[it.ID] {
				kept = append(kept, it)
			}
		}
		o.Items = kept
	}
	return len(o.Items) > 0
}

func (m *Manager) deleteOffer(pd *Pending, p *model.Profile, offerID string) {
	if idx := p.OfferIndex(offerID); idx >= 0 {
		offers := p.RagfairInfo.Offers
		p.RagfairInfo.Offers = append(offers[:idx:idx], offers[idx+1:]...)
	}
	pd.remove(offerID)
}

// Profiles gives the sweep serialized access to every stored profile.
type Profiles interface {
	IDs(ctx context.Context) ([]string, error)
	// WithSaved runs fn on the profile under its lock and persists it when
	// fn returns nil. saved runs after a successful write.
	WithSaved(ctx context.Context, id string, fn func(p *model.Profile) error, saved func()) error
}

type SweepStats struct {
	Profiles int
	Sold     int
	Expired  int
	Errors   int
}

// errUnchanged tells the store a profile needs no write.
var errUnchanged = errors.New("offers: profile unchanged")

// Sweep settles every profile that has market state and has reached the
// market's minimum level, spreading profiles over the configured workers.
func (m *Manager) Sweep(ctx context.Context, store Profiles) (SweepStats, error) {
	ids, err := store.IDs(ctx)
	if err != nil {
		return SweepStats{}, fmt.Errorf("sweep: list profiles: %w", err)
	}
	workers := m.cfg.Sweep.Workers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan string)
	var (
		mu    sync.Mutex
		stats SweepStats
		wg    sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				var s Settlement
				eligible := false
				err := store.WithSaved(ctx, id, func(p *model.Profile) error {
					if p.RagfairInfo == nil || p.Info.Level < m.cfg.MinUserLevel {
						return errUnchanged
					}
					eligible = true
					s = m.Settle(p)
					if !s.Changed() {
						return errUnchanged
					}
					return nil
				}, func() { m.Commit(s.Pending) })
				mu.Lock()
				if err != nil && !errors.Is(err, errUnchanged) {
					m.logger.Printf("sweep: profile %s: %v", id, err)
					stats.Errors++
				}
				if eligible {
					stats.Profiles++
					stats.Sold += s.Sold
					stats.Expired += s.Expired
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, id := range ids {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- id:
		}
	}
	close(jobs)
	wg.Wait()
	return stats, ctx.Err()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
