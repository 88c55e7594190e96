package ratelimit

import (
	"context"
	"time"

	"insight_gateway/internal/utils"
)

// Entry is one fixed-window counter, keyed by "<client>:<endpoint>".
type Entry struct {
	Key      string    `bson:"_id"`
	ClientID string    `bson:"ip"`
	Endpoint string    `bson:"endpoint"`
	Count    int       `bson:"count"`
	Window   time.Time `bson:"window"`
}

// Store persists window counters. Implementations provide replace-upsert
// semantics for Put; there is no transactional read-modify-write, the
// resulting race is accepted because the limiter fails open anyway.
type Store interface {
	// PurgeBefore removes entries whose window started before cutoff
	PurgeBefore(ctx context.Context, cutoff time.Time) error

	// Get returns the entry for key with a window at or after since, or nil
	Get(ctx context.Context, key string, since time.Time) (*Entry, error)

	// Put replaces the entry for its key, inserting when absent
	Put(ctx context.Context, e *Entry) error
}

// Result reports the outcome of a limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

// Limiter counts requests per client and endpoint in fixed windows. Any
// storage failure is treated as allowed with full quota: availability of the
// product must not depend on the rate-limit backend being healthy.
type Limiter struct {
	store  Store
	logger *utils.Logger
	now    func() time.Time
}

// NewLimiter creates a limiter over the given store.
func NewLimiter(store Store, logger *utils.Logger) *Limiter {
	if logger == nil {
		logger = utils.NewLogger("RATE_LIMIT")
	}
	return &Limiter{store: store, logger: logger, now: time.Now}
}

// CheckLimit records one request for the client/endpoint pair and reports
// whether it fits within maxRequests per windowMinutes.
func (l *Limiter) CheckLimit(ctx context.Context, clientID, endpoint string, maxRequests, windowMinutes int) Result {
	now := l.now()
	windowSize := time.Duration(windowMinutes) * time.Minute
	windowStart := now.Add(-windowSize)
	key := clientID + ":" + endpoint

	if err := l.store.PurgeBefore(ctx, windowStart); err != nil {
		return l.failOpen(now, maxRequests, err)
	}

	current, err := l.store.Get(ctx, key, windowStart)
	if err != nil {
		return l.failOpen(now, maxRequests, err)
	}

	currentCount := 0
	if current != nil {
		currentCount = current.Count
	}

	if currentCount >= maxRequests {
		l.logger.Info("limit exceeded", "client", clientID, "endpoint", endpoint, "count", currentCount)
		return Result{
			Allowed:   false,
			Remaining: 0,
			ResetTime: windowStart.Add(windowSize),
		}
	}

	err = l.store.Put(ctx, &Entry{
		Key:      key,
		ClientID: clientID,
		Endpoint: endpoint,
		Count:    currentCount + 1,
		Window:   now,
	})
	if err != nil {
		return l.failOpen(now, maxRequests, err)
	}

	remaining := maxRequests - currentCount - 1
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   true,
		Remaining: remaining,
		ResetTime: now.Add(windowSize),
	}
}

func (l *Limiter) failOpen(now time.Time, maxRequests int, err error) Result {
	l.logger.Error("store error, failing open", "error", err)
	return Result{Allowed: true, Remaining: maxRequests, ResetTime: now}
}

// EndpointLimit is one row of the per-endpoint configuration table.
type EndpointLimit struct {
	MaxRequests   int
	WindowMinutes int
}

var endpointLimits = map[string]EndpointLimit{
	"/api/ai/chat":     {MaxRequests: 30, WindowMinutes: 1},
	"/api/ai/extract":  {MaxRequests: 10, WindowMinutes: 1},
	"/api/ai/insights": {MaxRequests: 20, WindowMinutes: 1},
}

var defaultLimit = EndpointLimit{MaxRequests: 20, WindowMinutes: 1}

// LimitFor returns the limit configured for an endpoint path, or the default
// entry for unlisted endpoints.
func LimitFor(path string) EndpointLimit {
	if limit, ok := endpointLimits[path]; ok {
		return limit
	}
	return defaultLimit
}
