// Package profilestore keeps player profiles and serializes every change to
// one profile behind a per-profile lock.
package profilestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"fleamarket.gg/internal/market"
	"fleamarket.gg/internal/market/model"
)

// backend stores profiles as JSON documents.
type backend interface {
	load(ctx context.Context, id string) ([]byte, bool, error)
	save(ctx context.Context, id string, level int, raw []byte) error
	ids(ctx context.Context) ([]string, error)
	close() error
}

type Store struct {
	b backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newStore(b backend) *Store {
	return &Store{b: b, locks: map[string]*sync.Mutex{}}
}

// NewMemory returns a store that lives only as long as the process; the
// server persists it through snapshots.
func NewMemory() *Store {
	return newStore(&memBackend{docs: map[string][]byte{}})
}

func (s *Store) Close() error { return s.b.close() }

func (s *Store) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Get returns a private copy of the profile.
func (s *Store) Get(ctx context.Context, id string) (*model.Profile, error) {
	raw, ok, err := s.b.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, market.NotFound("profile %s not found", id)
	}
	return decode(raw)
}

// With runs fn on the profile under its lock. The profile is written back
// only when fn returns nil; fn's error is returned unchanged.
func (s *Store) With(ctx context.Context, id string, fn func(p *model.Profile) error) error {
	return s.WithSaved(ctx, id, fn, nil)
}

// WithSaved is With with a hook that runs once the profile has been written,
// still under the profile's lock. A failed write skips saved.
func (s *Store) WithSaved(ctx context.Context, id string, fn func(p *model.Profile) error, saved func()) error {
	unlock := s.lock(id)
	defer unlock()

	raw, ok, err := s.b.load(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return market.NotFound("profile %s not found", id)
	}
	p, err := decode(raw)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	if err := s.write(ctx, p); err != nil {
		return err
	}
	if saved != nil {
		saved()
	}
	return nil
}

// Put creates or replaces a profile.
func (s *Store) Put(ctx context.Context, p *model.Profile) error {
	if p == nil || p.ID == "" {
		return market.Validation("profile without id")
	}
	unlock := s.lock(p.ID)
	defer unlock()
	return s.write(ctx, p)
}

func (s *Store) IDs(ctx context.Context) ([]string, error) {
	return s.b.ids(ctx)
}

// All returns copies of every profile, ordered by id.
func (s *Store) All(ctx context.Context) ([]*model.Profile, error) {
	ids, err := s.b.ids(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Profile, 0, len(ids))
	for _, id := range ids {
		p, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Offers collects the player offers of every profile, for rebuilding the
// pool on start.
func (s *Store) Offers(ctx context.Context) ([]*model.Offer, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []*model.Offer
	for _, p := range all {
		if p.RagfairInfo == nil {
			continue
		}
		for _, o := range p.RagfairInfo.Offers {
			if o != nil {
				out = append(out, o)
			}
		}
	}
	return out, nil
}

func (s *Store) write(ctx context.Context, p *model.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", p.ID, err)
	}
	return s.b.save(ctx, p.ID, p.Info.Level, raw)
}

func decode(raw []byte) (*model.Profile, error) {
	var p model.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

type memBackend struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func (m *memBackend) load(_ context.Context, id string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.docs[id]
	return raw, ok, nil
}

func (m *memBackend) save(_ context.Context, id string, _ int, raw []byte) error {
	m.mu.Lock()
	m.docs[id] = raw
	m.mu.Unlock()
	return nil
}

func (m *memBackend) ids(context.Context) ([]string, error) {
	m.mu.RLock()
	out := make([]string, 0, len(m.docs))
	for id := range m.docs {
		out = append(out, id)
	}
	m.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}

func (m *memBackend) close() error { return nil }
