// Package sell simulates buyers for player offers.
package sell

import (
	"math"
	"math/rand"
	"sync"

	"fleamarket.gg/internal/market/model"
	"fleamarket.gg/internal/market/tuning"
)

// Rand is the random source a roll draws from.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// LockedRand makes a *rand.Rand safe to share between goroutines.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *LockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

type Simulator struct {
	chance   tuning.Chance
	time     tuning.SellTime
	duration int64 // seconds
}

func New(cfg tuning.Tuning) *Simulator {
	return &Simulator{
		chance:   cfg.Sell.Chance,
		time:     cfg.Sell.Time,
		duration: int64(cfg.OfferDurationHours) * 3600,
	}
}

// Chance is the percent chance a buyer takes a unit listed at asked when the
// market values it at avgMarket. Cheaper listings sell more readily.
func (s *Simulator) Chance(avgMarket, asked, quality float64) float64 {
	base := s.chance.Base * quality
	mod := avgMarket / asked * s.chance.SellMultiplier
	c := math.Round(base * mod * mod)
	if math.IsNaN(c) {
		return c
	}
	if c < s.chance.MinSellChancePercent {
		c = s.chance.MinSellChancePercent
	}
	if c > s.chance.MaxSellChancePercent {
		c = s.chance.MaxSellChancePercent
	}
	return c
}

// Roll schedules sales of quantity units starting at now. Each draw picks how
// many units a buyer wants (all of them for a pack) and rolls chance for it.
// Drawing stops once every unit was offered or the listing would have ended.
func (s *Simulator) Roll(rng Rand, chance float64, quantity int, pack bool, now int64) []model.SellResult {
	if math.IsNaN(chance) {
		chance = s.chance.Base
	}
	var out []model.SellResult
	if chance <= 0 {
		return out
	}
	end := now + s.duration
	sellTime := now
	remaining := quantity
	for remaining > 0 && sellTime < end {
		bought := remaining
		if !pack {
			bought = rng.Intn(remaining) + 1
		}
		if float64(rng.Intn(100)+1) <= chance {
			weighting := (100 - chance) / 100
			maxT := weighting * s.time.MaxMinutes * 60
			minT := s.time.MinMinutes * 60
			if maxT < minT {
				maxT = minT + 5
			}
			sellTime += int64(math.Floor(rng.Float64()*(maxT-minT) + minT))
			out = append(out, model.SellResult{SellTime: sellTime, Amount: bought})
		}
		remaining -= bought
	}
	return out
}

// Sold totals the units across sell results.
func Sold(results []model.SellResult) int {
	n := 0
	for _, r := range results {
		n += r.Amount
	}
	return n
}
