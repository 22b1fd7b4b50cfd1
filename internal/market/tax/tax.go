// Package tax computes the listing fee a player pays to put an offer up.
package tax

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"fleamarket.gg/internal/market/model"
)

// Input describes one listing to be taxed. Items[0] is the root.
type Input struct {
	Items             []model.Item
	Profile           *model.Profile
	RequirementsValue float64
	Quantity          int
	Pack              bool
}

type Policy interface {
	Fee(in Input) float64
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(Input) float64

func (f PolicyFunc) Fee(in Input) float64 { return f(in) }

type Calculator struct {
	policy Policy
	quotes *lru.Cache[string, float64]
}

func NewCalculator(policy Policy, cacheSize int) (*Calculator, error) {
	if policy == nil {
		return nil, fmt.Errorf("tax: nil policy")
	}
	if cacheSize <= 0 {
		cacheSize = 1
	}
	c, err := lru.New[string, float64](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("tax: quote cache: %w", err)
	}
	return &Calculator{policy: policy, quotes: c}, nil
}

// Tax returns the fee for listing items. A zero value or quantity is free.
func (c *Calculator) Tax(items []model.Item, p *model.Profile, requirementsValue float64, quantity int, pack bool) float64 {
	if requirementsValue == 0 || quantity == 0 || len(items) == 0 {
		return 0
	}
	return c.policy.Fee(Input{
		Items:             items,
		Profile:           p,
		RequirementsValue: requirementsValue,
		Quantity:          quantity,
		Pack:              pack,
	})
}

// Store keeps the fee the client showed for an item about to be listed.
func (c *Calculator) Store(itemID string, fee float64) {
	c.quotes.Add(itemID, fee)
}

func (c *Calculator) Cached(itemID string) (float64, bool) {
	return c.quotes.Peek(itemID)
}

func (c *Calculator) Clear(itemID string) {
	c.quotes.Remove(itemID)
}

// Take returns the stored fee for itemID and forgets it.
func (c *Calculator) Take(itemID string) (float64, bool) {
	fee, ok := c.quotes.Peek(itemID)
	c.quotes.Remove(itemID)
	return fee, ok
}
