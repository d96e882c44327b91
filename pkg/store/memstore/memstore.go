// Package memstore provides an in-memory Store for the response cache.
package memstore

import (
	"context"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/mrchypark/nalssi/pkg/store"
)

// MemStore keeps entries in shards guarded by per-shard mutexes so that
// lookups for different locations do not contend on one lock.
type MemStore struct {
	shards []shard
	slots  uint64
}

type shard struct {
	mu      sync.RWMutex
	values  map[string][]byte
	entries map[string]*store.Entry
}

var _ store.Store = (*MemStore)(nil)

// New creates a MemStore with the given number of shards.
// If slots is 0 or less, it defaults to 64.
func New(slots int) *MemStore {
	if slots <= 0 {
		slots = 64
	}
	m := &MemStore{
		shards: make([]shard, slots),
		slots:  uint64(slots),
	}
	for i := range m.shards {
		m.shards[i].values = make(map[string][]byte)
		m.shards[i].entries = make(map[string]*store.Entry)
	}
	return m
}

func (m *MemStore) shardFor(key string) *shard {
	return &m.shards[xxh3.HashString(key)%m.slots]
}

// Get retrieves a cached value and its entry metadata.
func (m *MemStore) Get(ctx context.Context, key string) ([]byte, *store.Entry, error) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, nil, store.ErrNotFound
	}

	// Copy out so callers cannot mutate the cached bytes.
	out := make([]byte, len(value))
	copy(out, value)
	return out, s.entries[key], nil
}

// Set stores a value with its entry metadata.
func (m *MemStore) Set(ctx context.Context, key string, value []byte, entry *store.Entry) error {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	s.entries[key] = entry
	return nil
}

// Delete removes an entry; missing keys are ignored.
func (m *MemStore) Delete(ctx context.Context, key string) error {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	delete(s.entries, key)
	return nil
}
