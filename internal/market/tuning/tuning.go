package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	Sell    Sell    `yaml:"sell"`
	Dynamic Dynamic `yaml:"dynamic"`
	Tax     Tax     `yaml:"tax"`
	Sweep   Sweep   `yaml:"sweep"`

	MinUserLevel       int `yaml:"min_user_level"`
	OfferDurationHours int `yaml:"offer_duration_hours"`
}

type Sell struct {
	Fees bool `yaml:"fees"`
	// Grace period left on an offer the player withdraws.
	ExpireSeconds int `yaml:"expire_seconds"`

	Chance     Chance     `yaml:"chance"`
	Time       SellTime   `yaml:"time"`
	Reputation Reputation `yaml:"reputation"`
}

type Chance struct {
	Base                 float64 `yaml:"base"`
	SellMultiplier       float64 `yaml:"sell_multiplier"`
	MinSellChancePercent float64 `yaml:"min_sell_chance_percent"`
	MaxSellChancePercent float64 `yaml:"max_sell_chance_percent"`
}

type SellTime struct {
	MinMinutes float64 `yaml:"min_minutes"`
	MaxMinutes float64 `yaml:"max_minutes"`
}

type Reputation struct {
	Gain float64 `yaml:"gain"`
}

type Dynamic struct {
	// tpl -> multiplier applied to the listing price of that item
	ItemPriceMultiplier map[string]float64 `yaml:"item_price_multiplier,omitempty"`
}

type Tax struct {
	CommunityItemPercent        float64 `yaml:"community_item_percent"`
	CommunityRequirementPercent float64 `yaml:"community_requirement_percent"`
	CacheSize                   int     `yaml:"cache_size"`
}

type Sweep struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	Workers         int `yaml:"workers"`
}

// Load reads a tuning file on top of Defaults. An empty path yields Defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("ragfair.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("ragfair.yaml: %w", err)
	}
	return t, nil
}

func Defaults() Tuning {
	return Tuning{
		Sell: Sell{
			Fees:          true,
			ExpireSeconds: 71,
			Chance: Chance{
				Base:                 50,
				SellMultiplier:       1.24,
				MinSellChancePercent: 0,
				MaxSellChancePercent: 100,
			},
			Time:       SellTime{MinMinutes: 5, MaxMinutes: 15},
			Reputation: Reputation{Gain: 0.0000002},
		},
		Dynamic: Dynamic{ItemPriceMultiplier: map[string]float64{}},
		Tax: Tax{
			CommunityItemPercent:        3,
			CommunityRequirementPercent: 3,
			CacheSize:                   1024,
		},
		Sweep:              Sweep{IntervalSeconds: 60, Workers: 4},
		MinUserLevel:       15,
		OfferDurationHours: 12,
	}
}

func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	if t.Dynamic.ItemPriceMultiplier == nil {
		t.Dynamic.ItemPriceMultiplier = map[string]float64{}
	}
	if t.Sweep.Workers <= 0 {
		t.Sweep.Workers = 1
	}
	if t.Tax.CacheSize <= 0 {
		t.Tax.CacheSize = 1
	}
}

func (t Tuning) Validate() error {
	c := t.Sell.Chance
	if c.Base < 0 {
		return fmt.Errorf("sell.chance.base must be >= 0")
	}
	if c.SellMultiplier <= 0 {
		return fmt.Errorf("sell.chance.sell_multiplier must be > 0")
	}
	if c.MinSellChancePercent < 0 || c.MaxSellChancePercent > 100 || c.MinSellChancePercent > c.MaxSellChancePercent {
		return fmt.Errorf("sell.chance min/max must satisfy 0 <= min <= max <= 100")
	}
	if t.Sell.Time.MinMinutes < 0 || t.Sell.Time.MaxMinutes < 0 {
		return fmt.Errorf("sell.time minutes must be >= 0")
	}
	if t.Sell.ExpireSeconds < 0 {
		return fmt.Errorf("sell.expire_seconds must be >= 0")
	}
	if t.OfferDurationHours <= 0 {
		return fmt.Errorf("offer_duration_hours must be > 0")
	}
	if t.MinUserLevel < 0 {
		return fmt.Errorf("min_user_level must be >= 0")
	}
	if t.Tax.CommunityItemPercent < 0 || t.Tax.CommunityRequirementPercent < 0 {
		return fmt.Errorf("tax percents must be >= 0")
	}
	if t.Sweep.IntervalSeconds <= 0 {
		return fmt.Errorf("sweep.interval_seconds must be > 0")
	}
	for tpl, m := range t.Dynamic.ItemPriceMultiplier {
		if m <= 0 {
			return fmt.Errorf("dynamic.item_price_multiplier[%s] must be > 0", tpl)
		}
	}
	return nil
}

// PriceMultiplier returns the configured listing multiplier for tpl, 1 when unset.
func (t Tuning) PriceMultiplier(tpl string) float64 {
	if m, ok := t.Dynamic.ItemPriceMultiplier[tpl]; ok {
		return m
	}
	return 1
}

func (t Tuning) OfferDuration() time.Duration {
	return time.Duration(t.OfferDurationHours) * time.Hour
}

func (t Tuning) SweepInterval() time.Duration {
	return time.Duration(t.Sweep.IntervalSeconds) * time.Second
}

// Digest fingerprints the effective settings.
func (t Tuning) Digest() string {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
