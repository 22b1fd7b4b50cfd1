// Package traders is the reference trader collaborator: assortments loaded
// from json and the quest gates that hide or lock parts of them.
package traders

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"fleamarket.gg/internal/market/inventory"
	"fleamarket.gg/internal/market/model"
)

type Trader struct {
	ID       string             `json:"id"`
	Nickname string             `json:"nickname"`
	Assort   model.TraderAssort `json:"assort"`
	// assort root id -> quest that has to be completed to buy it
	QuestAssort map[string]string `json:"quest_assort,omitempty"`
}

type Registry struct {
	byID   map[string]*Trader
	order  []string
	Digest string
}

func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []*Trader
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("traders.json: %w", err)
	}
	r, err := NewRegistry(list)
	if err != nil {
		return nil, fmt.Errorf("traders.json: %w", err)
	}
	sum := sha256.Sum256(raw)
	r.Digest = hex.EncodeToString(sum[:])
	return r, nil
}

func NewRegistry(list []*Trader) (*Registry, error) {
	r := &Registry{byID: map[string]*Trader{}}
	for _, t := range list {
		if t == nil || t.ID == "" {
			return nil, fmt.Errorf("trader with empty id")
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate trader %s", t.ID)
		}
		t.Assort.TraderID = t.ID
		r.byID[t.ID] = t
		r.order = append(r.order, t.ID)
	}
	sort.Strings(r.order)
	return r, nil
}

func (r *Registry) Get(id string) (*Trader, bool) {
	t, ok := r.byID[id]
	return t, ok
}

func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// AssortItem looks up one entry of a trader's live assortment.
func (r *Registry) AssortItem(traderID, itemID string) (model.Item, bool) {
	t, ok := r.byID[traderID]
	if !ok {
		return model.Item{}, false
	}
	return t.Assort.Item(itemID)
}

// DisplayableAssorts returns, per trader, the assortment as the profile sees
// it: entries gated by an unfinished quest stay listed but every payment
// option is flagged quest-locked.
func (r *Registry) DisplayableAssorts(p *model.Profile) map[string]*model.TraderAssort {
	out := make(map[string]*model.TraderAssort, len(r.byID))
	for _, id := range r.order {
		t := r.byID[id]
		a := &model.TraderAssort{
			TraderID:        t.ID,
			Items:           model.CloneItems(t.Assort.Items),
			BarterScheme:    make(map[string][][]model.Requirement, len(t.Assort.BarterScheme)),
			LoyalLevelItems: make(map[string]int, len(t.Assort.LoyalLevelItems)),
		}
		for k, v := range t.Assort.LoyalLevelItems {
			a.LoyalLevelItems[k] = v
		}
		for assortID, schemes := range t.Assort.BarterScheme {
			locked := false
			if quest, gated := t.QuestAssort[assortID]; gated && (p == nil || !p.QuestCompleted(quest)) {
				locked = true
			}
			copied := make([][]model.Requirement, len(schemes))
			for i, scheme := range schemes {
				copied[i] = append([]model.Requirement(nil), scheme...)
				if locked {
					for j := range copied[i] {
						copied[i][j].QuestLocked = true
					}
				}
			}
			a.BarterScheme[assortID] = copied
		}
		out[id] = a
	}
	return out
}

// Offers builds one market offer per root assortment entry of every trader.
// cost prices a requirement list in roubles.
func (r *Registry) Offers(now int64, durationSeconds int64, cost func([]model.Requirement) float64) []*model.Offer {
	var out []*model.Offer
	for _, id := range r.order {
		t := r.byID[id]
		ids := map[string]bool{}
		for _, it := range t.Assort.Items {
			ids[it.ID] = true
		}
		for _, root := range t.Assort.Items {
			if ids[root.ParentID] {
				continue
			}
			schemes := t.Assort.BarterScheme[root.ID]
			if len(schemes) == 0 || len(schemes[0]) == 0 {
				continue
			}
			reqs := append([]model.Requirement(nil), schemes[0]...)
			items := model.CloneItems(inventory.WithChildren(t.Assort.Items, root.ID))
			items[0].ParentID = model.HideoutParent
			items[0].SlotID = model.HideoutParent

			o := &model.Offer{
				ID:           root.ID,
				User:         model.User{ID: t.ID, MemberType: model.MemberTrader, Nickname: t.Nickname},
				Root:         root.ID,
				Items:        items,
				Requirements: reqs,
				StartTime:    now,
				EndTime:      now + durationSeconds,
				LoyaltyLevel: t.Assort.LoyalLevelItems[root.ID],
			}
			if root.Upd != nil {
				o.BuyRestrictionMax = root.Upd.BuyRestrictionMax
				o.BuyRestrictionCurrent = root.Upd.BuyRestrictionCurrent
			}
			c := cost(reqs)
			o.RequirementsCost = c
			o.ItemsCost = c
			o.SummaryCost = c
			out = append(out, o)
		}
	}
	return out
}
