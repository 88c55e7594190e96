package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps cache entries in process memory, for tests and for
// deployments without a document store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewMemoryStore creates an in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Get reads the live entry for hash.
func (s *MemoryStore) Get(_ context.Context, hash string, now time.Time) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[hash]
	if !ok || !e.ExpiresAt.After(now) {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

// Put replaces the entry for its hash.
func (s *MemoryStore) Put(_ context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *e
	s.entries[e.Hash] = &copied
	return nil
}

// DeleteExpired removes entries past their expiry.
func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for hash, e := range s.entries {
		if !e.ExpiresAt.After(now) {
			delete(s.entries, hash)
			removed++
		}
	}
	return removed, nil
}
