package monitoring

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps request logs in process memory, for tests and for
// deployments without a document store.
type MemoryStore struct {
	mu      sync.Mutex
	entries []RequestLog
}

// NewMemoryStore creates an in-memory request log store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// InsertMany appends a batch of entries.
func (s *MemoryStore) InsertMany(_ context.Context, entries []RequestLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entries...)
	return nil
}

// Aggregate summarizes entries with timestamps at or after since.
func (s *MemoryStore) Aggregate(_ context.Context, since time.Time) (*WindowAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agg := &WindowAggregate{ProviderUsage: map[string]int64{}}

	var window []RequestLog
	for _, e := range s.entries {
		if e.Timestamp.Before(since) {
			continue
		}
		window = append(window, e)
		agg.Total++
		agg.ProviderUsage[e.Provider]++
		if e.Success {
			agg.Successes++
			agg.SuccessDuration += int64(e.ResponseTime)
		}
	}

	sort.Slice(window, func(i, j int) bool {
		return window[i].Timestamp.After(window[j].Timestamp)
	})
	if len(window) > recentLimit {
		window = window[:recentLimit]
	}
	agg.Recent = window

	return agg, nil
}

// DeleteBefore removes entries older than cutoff.
func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []RequestLog
	var removed int64
	for _, e := range s.entries {
		if e.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed, nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
