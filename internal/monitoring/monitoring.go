package monitoring

import (
	"context"
	"math"
	"time"

	"insight_gateway/internal/queue"
	"insight_gateway/internal/utils"
)

// RequestLog is one append-only record of a top-level LLM invocation
// sequence. Exactly one entry is written per sequence, not per retry, so the
// statistics count logical requests.
type RequestLog struct {
	Timestamp    time.Time `bson:"timestamp" json:"timestamp"`
	Provider     string    `bson:"provider" json:"provider"`
	Endpoint     string    `bson:"endpoint" json:"endpoint"`
	Success      bool      `bson:"success" json:"success"`
	ResponseTime int       `bson:"responseTime" json:"responseTime"` // milliseconds
	Error        string    `bson:"error,omitempty" json:"error,omitempty"`
	UserID       string    `bson:"userId,omitempty" json:"userId,omitempty"`
	TokensUsed   int       `bson:"tokensUsed,omitempty" json:"tokensUsed,omitempty"`
}

// Stats are the aggregate figures for a trailing window.
type Stats struct {
	TotalRequests   int64            `json:"totalRequests"`
	SuccessRate     float64          `json:"successRate"`
	AvgResponseTime int              `json:"avgResponseTime"`
	FailureCount    int64            `json:"failureCount"`
	ProviderUsage   map[string]int64 `json:"providerUsage"`
	RecentRequests  []RequestLog     `json:"recentRequests"`
}

// WindowAggregate is the raw material for Stats, produced by a Store so the
// derived figures are computed in one place regardless of backend.
type WindowAggregate struct {
	Total           int64
	Successes       int64
	SuccessDuration int64 // summed response time of successful entries, ms
	ProviderUsage   map[string]int64
	Recent          []RequestLog // up to 20, newest first
}

// Store persists request logs.
type Store interface {
	// InsertMany appends a batch of entries
	InsertMany(ctx context.Context, entries []RequestLog) error

	// Aggregate summarizes entries with timestamps at or after since
	Aggregate(ctx context.Context, since time.Time) (*WindowAggregate, error)

	// DeleteBefore removes entries older than cutoff, returning the count
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service records AI invocations and serves aggregate statistics. Entries
// go through a queue and are drained into the store by a Worker, so logging
// never adds storage latency to the calling request. All failures here are
// swallowed: monitoring must never break the request it observes.
type Service struct {
	q      queue.Queue
	store  Store
	logger *utils.Logger
	now    func() time.Time
}

// NewService creates a monitoring service over the given queue and store.
func NewService(q queue.Queue, store Store, logger *utils.Logger) *Service {
	if logger == nil {
		logger = utils.NewLogger("MONITOR")
	}
	return &Service{q: q, store: store, logger: logger, now: time.Now}
}

// LogRequest stamps the entry and hands it to the queue. Errors are logged
// and swallowed.
func (s *Service) LogRequest(ctx context.Context, entry RequestLog) {
	entry.Timestamp = s.now()

	if err := s.q.Enqueue(ctx, entry); err != nil {
		s.logger.Error("failed to enqueue log entry", "error", err, "provider", entry.Provider)
		return
	}
	s.logger.Debug("logged request",
		"provider", entry.Provider, "endpoint", entry.Endpoint,
		"success", entry.Success, "responseTime", entry.ResponseTime)
}

// GetStats computes aggregate statistics for the trailing window. On store
// failure it returns zero-valued stats rather than an error.
func (s *Service) GetStats(ctx context.Context, hours int) *Stats {
	since := s.now().Add(-time.Duration(hours) * time.Hour)

	agg, err := s.store.Aggregate(ctx, since)
	if err != nil {
		s.logger.Error("stats query failed", "error", err)
		return &Stats{ProviderUsage: map[string]int64{}, RecentRequests: []RequestLog{}}
	}

	stats := &Stats{
		TotalRequests:  agg.Total,
		FailureCount:   agg.Total - agg.Successes,
		ProviderUsage:  agg.ProviderUsage,
		RecentRequests: agg.Recent,
	}
	if stats.ProviderUsage == nil {
		stats.ProviderUsage = map[string]int64{}
	}
	if stats.RecentRequests == nil {
		stats.RecentRequests = []RequestLog{}
	}

	// An idle system reports a 100% success rate, not an alarm
	if agg.Total == 0 {
		stats.SuccessRate = 100
	} else {
		stats.SuccessRate = float64(agg.Successes) / float64(agg.Total) * 100
	}

	// Average covers successful entries only
	if agg.Successes > 0 {
		stats.AvgResponseTime = int(math.Round(float64(agg.SuccessDuration) / float64(agg.Successes)))
	}

	return stats
}

// Cleanup deletes entries older than the retention cutoff.
func (s *Service) Cleanup(ctx context.Context, daysToKeep int) {
	cutoff := s.now().AddDate(0, 0, -daysToKeep)

	removed, err := s.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("cleanup failed", "error", err)
		return
	}
	s.logger.Info("cleanup complete", "removed", removed, "daysKept", daysToKeep)
}
