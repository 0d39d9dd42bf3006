package store

import (
	"context"
	"sync"

	"github.com/dogfacts/dogfacts/internal/fact"
)

// MemoryStore keeps the collection in process memory.
// Uses sync.RWMutex for thread-safe concurrent access.
type MemoryStore struct {
	mu    sync.RWMutex
	facts []fact.Fact
}

// NewMemoryStore creates a memory store holding a copy of facts.
func NewMemoryStore(facts []fact.Fact) *MemoryStore {
	return &MemoryStore{facts: clone(facts)}
}

// Load returns a copy of the collection to prevent external modification.
func (m *MemoryStore) Load(ctx context.Context) ([]fact.Fact, error) {
	if err := checkContext(ctx, "load"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.facts), nil
}

// Save replaces the collection with a copy of facts.
func (m *MemoryStore) Save(ctx context.Context, facts []fact.Fact) error {
	if err := checkContext(ctx, "save"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facts = clone(facts)
	return nil
}

// Update applies fn under the write lock.
func (m *MemoryStore) Update(ctx context.Context, fn MutateFunc) error {
	if err := checkContext(ctx, "update"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := fn(clone(m.facts))
	if err != nil {
		return err
	}
	m.facts = clone(next)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
