package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"igfeed/pkg/models"
)

// MemoryStore keeps entries in a size-bounded LRU. With the default size of
// one, caching a new identity evicts the previous one.
type MemoryStore struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, *Entry]
	ttl time.Duration
	now func() time.Time
}

// NewMemoryStore creates an in-process store
func NewMemoryStore(ttl time.Duration, maxProfiles int) *MemoryStore {
	return newMemoryStore(ttl, maxProfiles, time.Now)
}

func newMemoryStore(ttl time.Duration, maxProfiles int, now func() time.Time) *MemoryStore {
	if maxProfiles <= 0 {
		maxProfiles = 1
	}
	return &MemoryStore{
		// the LRU's own expiry only reclaims memory; liveness is decided by
		// live() against the injected clock
		lru: expirable.NewLRU[string, *Entry](maxProfiles, nil, ttl+time.Minute),
		ttl: ttl,
		now: now,
	}
}

// SetClock replaces the time source used for expiry
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// live returns the stored entry when it has not expired. Callers hold mu.
func (m *MemoryStore) live(identity string) *Entry {
	e, ok := m.lru.Get(identity)
	if !ok {
		return nil
	}
	if m.now().Sub(e.CreatedAt) > m.ttl {
		m.lru.Remove(identity)
		return nil
	}
	return e
}

func copyEntry(e *Entry) *Entry {
	served := make(map[int]struct{}, len(e.ServedPages))
	for p := range e.ServedPages {
		served[p] = struct{}{}
	}
	return &Entry{
		Identity:    e.Identity,
		Profile:     e.Profile,
		ServedPages: served,
		CreatedAt:   e.CreatedAt,
	}
}

func (m *MemoryStore) Get(ctx context.Context, identity string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(identity)
	if e == nil {
		return nil, nil
	}
	return copyEntry(e), nil
}

func (m *MemoryStore) Put(ctx context.Context, identity string, profile *models.Profile, initialPage int) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := newEntry(identity, profile, initialPage, m.now())
	m.lru.Add(identity, e)
	return copyEntry(e), nil
}

func (m *MemoryStore) MarkServed(ctx context.Context, identity string, page int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(identity)
	if e == nil {
		return false, ErrNoEntry
	}
	if e.Served(page) {
		return false, nil
	}
	e.ServedPages[page] = struct{}{}
	return true, nil
}

func (m *MemoryStore) IsPageServed(ctx context.Context, identity string, page int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(identity)
	if e == nil {
		return false, nil
	}
	return e.Served(page), nil
}

func (m *MemoryStore) Delete(ctx context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lru.Remove(identity)
	return nil
}

// Len returns the number of stored entries, expired ones included
func (m *MemoryStore) Len() int {
	return m.lru.Len()
}

func (m *MemoryStore) Close() error {
	m.lru.Purge()
	return nil
}
