package cache

import (
	"context"
	"encoding/json"
	"time"

	"insight_gateway/internal/utils"
)

// Entry is one cached AI result, content-addressed by hash.
type Entry struct {
	Hash      string          `bson:"_id"`
	UserID    string          `bson:"userId,omitempty"`
	Result    json.RawMessage `bson:"result"`
	CreatedAt time.Time       `bson:"createdAt"`
	ExpiresAt time.Time       `bson:"expiresAt"`
}

// Store persists cache entries. Get must filter expired entries in the
// query itself so a stale result is never returned even before cleanup runs.
type Store interface {
	// Get returns the live entry for hash, or nil on a miss
	Get(ctx context.Context, hash string, now time.Time) (*Entry, error)

	// Put replaces the entry for its hash, inserting when absent
	Put(ctx context.Context, e *Entry) error

	// DeleteExpired removes entries whose expiry has passed, returning the count
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Service is a content-addressed result cache with TTL expiry. Caching is an
// optimization, not a correctness requirement: read errors are misses and
// write errors are logged and swallowed.
type Service struct {
	store  Store
	logger *utils.Logger
	now    func() time.Time
}

// NewService creates a cache service over the given store.
func NewService(store Store, logger *utils.Logger) *Service {
	if logger == nil {
		logger = utils.NewLogger("CACHE")
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// GenerateHash digests the normalized request content, optionally scoped to
// a user, into the storage key. Deterministic: the same inputs always yield
// the same key.
func GenerateHash(content, userID string) string {
	return utils.Fingerprint(content, userID)
}

// Get returns the cached result for hash, or nil on a miss. Storage errors
// are treated as misses.
func (s *Service) Get(ctx context.Context, hash string) json.RawMessage {
	entry, err := s.store.Get(ctx, hash, s.now())
	if err != nil {
		s.logger.Error("get failed, treating as miss", "error", err)
		return nil
	}
	if entry == nil {
		s.logger.Debug("miss", "hash", shortHash(hash))
		return nil
	}
	s.logger.Debug("hit", "hash", shortHash(hash))
	return entry.Result
}

// Set stores a result under hash for ttlHours. Errors are logged, never
// propagated.
func (s *Service) Set(ctx context.Context, hash string, result json.RawMessage, userID string, ttlHours int) {
	now := s.now()
	err := s.store.Put(ctx, &Entry{
		Hash:      hash,
		UserID:    userID,
		Result:    result,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(ttlHours) * time.Hour),
	})
	if err != nil {
		s.logger.Error("set failed", "error", err, "hash", shortHash(hash))
		return
	}
	s.logger.Debug("stored", "hash", shortHash(hash), "ttlHours", ttlHours)
}

// Cleanup removes expired entries. Safe to call from a periodic sweeper.
func (s *Service) Cleanup(ctx context.Context) {
	removed, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("cleanup failed", "error", err)
		return
	}
	s.logger.Info("cleanup complete", "removed", removed)
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
