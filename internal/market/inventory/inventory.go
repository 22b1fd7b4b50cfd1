// Package inventory is the reference inventory collaborator: item lookup,
// child collection and removal over a profile's item list.
package inventory

import (
	"fleamarket.gg/internal/market/model"
)

// Find returns the index of the item with the given id, or -1.
func Find(items []model.Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// WithChildren returns the root item followed by every item attached to it,
// directly or transitively, in inventory order.
func WithChildren(items []model.Item, rootID string) []model.Item {
	i := Find(items, rootID)
	if i < 0 {
		return nil
	}
	out := []model.Item{items[i]}
	ids := map[string]bool{rootID: true}
	for grew := true; grew; {
		grew = false
		for _, it := range items {
			if ids[it.ID] || !ids[it.ParentID] {
				continue
			}
			ids[it.ID] = true
			out = append(out, it)
			grew = true
		}
	}
	return out
}

// Remove deletes the item and its children from the profile and returns
// the removed items.
func Remove(p *model.Profile, rootID string) []model.Item {
	removed := WithChildren(p.Inventory.Items, rootID)
	if len(removed) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(removed))
	for _, it := range removed {
		drop[it.ID] = true
	}
	kept := p.Inventory.Items[:0]
	for _, it := range p.Inventory.Items {
		if !drop[it.ID] {
			kept = append(kept, it)
		}
	}
	p.Inventory.Items = kept
	return removed
}

// Add appends items, parenting roots to the stash.
func Add(p *model.Profile, items []model.Item) {
	ids := make(map[string]bool, len(items))
	for _, it := range items {
		ids[it.ID] = true
	}
	for _, it := range items {
		if !ids[it.ParentID] {
			it.ParentID = p.Inventory.Stash
			it.SlotID = "hideout"
		}
		p.Inventory.Items = append(p.Inventory.Items, it)
	}
}

// FixStackCount gives an item without a stack size a stack of one.
func FixStackCount(it *model.Item) {
	u := it.EnsureUpd()
	if u.StackObjectsCount <= 0 {
		u.StackObjectsCount = 1
	}
}

// MergeStackable normalizes stack sizes and adds the stack of every further
// root item onto the first root, which then carries the listing total.
// Every item stays in the result.
func MergeStackable(items []model.Item) []model.Item {
	ids := make(map[string]bool, len(items))
	for _, it := range items {
		ids[it.ID] = true
	}
	out := make([]model.Item, 0, len(items))
	rootIdx := -1
	for _, it := range items {
		it = it.Clone()
		FixStackCount(&it)
		if !ids[it.ParentID] {
			if rootIdx < 0 {
				rootIdx = len(out)
			} else {
				out[rootIdx].Upd.StackObjectsCount += it.Upd.StackObjectsCount
			}
		}
		out = append(out, it)
	}
	return out
}

// SplitStacks breaks count units of tpl into items no larger than maxStack.
func SplitStacks(tpl string, count, maxStack int, newID func() string) []model.Item {
	if maxStack <= 0 {
		maxStack = 1
	}
	var out []model.Item
	for count > 0 {
		n := count
		if n > maxStack {
			n = maxStack
		}
		out = append(out, model.Item{ID: newID(), Tpl: tpl, Upd: &model.Upd{StackObjectsCount: n}})
		count -= n
	}
	return out
}

// CountTpl sums the stacks of every item of tpl.
func CountTpl(items []model.Item, tpl string) int {
	n := 0
	for _, it := range items {
		if it.Tpl == tpl {
			n += it.StackCount()
		}
	}
	return n
}
