// Package pool holds every live offer on the market, player and trader alike.
package pool

import (
	"sort"
	"sync"

	"fleamarket.gg/internal/market/model"
)

type entry struct {
	offer *model.Offer
	seq   uint64
}

// Pool stores private copies; every read returns a clone.
type Pool struct {
	mu sync.RWMutex

	byID     map[string]*entry
	byTpl    map[string]map[string]struct{}
	required map[string]map[string]struct{}
	byIntID  map[int]string
	seq      uint64
}

func New() *Pool {
	return &Pool{
		byID:     map[string]*entry{},
		byTpl:    map[string]map[string]struct{}{},
		required: map[string]map[string]struct{}{},
		byIntID:  map[int]string{},
	}
}

// Add inserts or replaces an offer.
func (p *Pool) Add(o *model.Offer) {
	if o == nil || o.ID == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addLocked(o.Clone())
}

func (p *Pool) addLocked(o *model.Offer) {
	var seq uint64
	if old, ok := p.byID[o.ID]; ok {
		seq = old.seq
		p.unindexLocked(old.offer)
	} else {
		p.seq++
		seq = p.seq
	}
	p.byID[o.ID] = &entry{offer: o, seq: seq}
	addIndex(p.byTpl, o.RootTpl(), o.ID)
	for _, r := range o.Requirements {
		addIndex(p.required, r.Tpl, o.ID)
	}
	if o.IntID > 0 {
		p.byIntID[o.IntID] = o.ID
	}
}

func (p *Pool) unindexLocked(o *model.Offer) {
	delIndex(p.byTpl, o.RootTpl(), o.ID)
	for _, r := range o.Requirements {
		delIndex(p.required, r.Tpl, o.ID)
	}
	if o.IntID > 0 && p.byIntID[o.IntID] == o.ID {
		delete(p.byIntID, o.IntID)
	}
}

func (p *Pool) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byID[id]
	if !ok {
		return false
	}
	p.unindexLocked(e.offer)
	delete(p.byID, id)
	return true
}

// RemoveWhere drops every offer matching fn and returns how many went.
func (p *Pool) RemoveWhere(fn func(*model.Offer) bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for id, e := range p.byID {
		if fn(e.offer) {
			p.unindexLocked(e.offer)
			delete(p.byID, id)
			n++
		}
	}
	return n
}

func (p *Pool) Get(id string) (*model.Offer, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.byID[id]
	if !ok {
		return nil, false
	}
	return e.offer.Clone(), true
}

// GetByIntID resolves the 1-based index the last search assigned.
func (p *Pool) GetByIntID(intID int) (*model.Offer, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.byIntID[intID]
	if !ok {
		return nil, false
	}
	e, ok := p.byID[id]
	if !ok {
		return nil, false
	}
	return e.offer.Clone(), true
}

// Update applies fn to the stored offer under the write lock.
func (p *Pool) Update(id string, fn func(*model.Offer)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byID[id]
	if !ok {
		return false
	}
	o := e.offer.Clone()
	fn(o)
	p.addLocked(o)
	return true
}

// SetIndexes records search-assigned indices so lookups by int id resolve.
func (p *Pool) SetIndexes(idx map[string]int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, n := range idx {
		e, ok := p.byID[id]
		if !ok {
			continue
		}
		if e.offer.IntID > 0 && p.byIntID[e.offer.IntID] == id {
			delete(p.byIntID, e.offer.IntID)
		}
		e.offer.IntID = n
		p.byIntID[n] = id
	}
}

// All returns clones of every offer in insertion order.
func (p *Pool) All() []*model.Offer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entries := make([]*entry, 0, len(p.byID))
	for _, e := range p.byID {
		entries = append(entries, e)
	}
	return cloneSorted(entries)
}

// ByTpl returns offers whose root item is tpl.
func (p *Pool) ByTpl(tpl string) []*model.Offer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.collectLocked(p.byTpl[tpl])
}

// Requiring returns offers that ask for tpl as one of their barter terms.
func (p *Pool) Requiring(tpl string) []*model.Offer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.collectLocked(p.required[tpl])
}

func (p *Pool) HasTpl(tpl string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byTpl[tpl]) > 0
}

func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byID)
}

// Replace swaps the whole content, used when restoring a snapshot.
func (p *Pool) Replace(offers []*model.Offer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byID = map[string]*entry{}
	p.byTpl = map[string]map[string]struct{}{}
	p.required = map[string]map[string]struct{}{}
	p.byIntID = map[int]string{}
	for _, o := range offers {
		if o != nil && o.ID != "" {
			p.addLocked(o.Clone())
		}
	}
}

func (p *Pool) collectLocked(ids map[string]struct{}) []*model.Offer {
	entries := make([]*entry, 0, len(ids))
	for id := range ids {
		if e, ok := p.byID[id]; ok {
			entries = append(entries, e)
		}
	}
	return cloneSorted(entries)
}

func cloneSorted(entries []*entry) []*model.Offer {
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]*model.Offer, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.offer.Clone())
	}
	return out
}

func addIndex(idx map[string]map[string]struct{}, key, id string) {
	if key == "" {
		return
	}
	set, ok := idx[key]
	if !ok {
		set = map[string]struct{}{}
		idx[key] = set
	}
	set[id] = struct{}{}
}

func delIndex(idx map[string]map[string]struct{}, key, id string) {
	set, ok := idx[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(idx, key)
	}
}
