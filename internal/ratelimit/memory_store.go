package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps counters in process memory. Used in tests and in
// deployments without a document store, where limits only need to hold
// within a single instance.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewMemoryStore creates an in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// PurgeBefore deletes counters whose window started before cutoff.
func (s *MemoryStore) PurgeBefore(_ context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		if e.Window.Before(cutoff) {
			delete(s.entries, key)
		}
	}
	return nil
}

// Get reads the counter for key, ignoring entries from expired windows.
func (s *MemoryStore) Get(_ context.Context, key string, since time.Time) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.Window.Before(since) {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

// Put replaces the counter for its key.
func (s *MemoryStore) Put(_ context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *e
	s.entries[e.Key] = &copied
	return nil
}
