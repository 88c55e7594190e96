package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter() (*Limiter, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiter(NewMemoryStore(), nil)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestLimiter_AllowsUpToMax(t *testing.T) {
	limiter, _ := newTestLimiter()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result := limiter.CheckLimit(ctx, "1.2.3.4", "/api/ai/chat", 5, 1)
		assert.True(t, result.Allowed, "request %d", i+1)
		assert.Equal(t, 5-i-1, result.Remaining)
	}

	// Request N returned remaining=0; request N+1 in the same window blocks
	result := limiter.CheckLimit(ctx, "1.2.3.4", "/api/ai/chat", 5, 1)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.False(t, result.ResetTime.IsZero())
}

func TestLimiter_WindowExpiryResetsCount(t *testing.T) {
	limiter, now := newTestLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.CheckLimit(ctx, "1.2.3.4", "/api/ai/chat", 3, 1)
	}
	result := limiter.CheckLimit(ctx, "1.2.3.4", "/api/ai/chat", 3, 1)
	assert.False(t, result.Allowed)

	// Advance past the window: a fresh count of 1 applies
	*now = now.Add(61 * time.Second)
	result = limiter.CheckLimit(ctx, "1.2.3.4", "/api/ai/chat", 3, 1)
	assert.True(t, result.Allowed)
	assert.Equal(t, 2, result.Remaining)
}

func TestLimiter_IndependentKeys(t *testing.T) {
	limiter, _ := newTestLimiter()
	ctx := context.Background()

	limiter.CheckLimit(ctx, "1.2.3.4", "/api/ai/chat", 1, 1)
	blocked := limiter.CheckLimit(ctx, "1.2.3.4", "/api/ai/chat", 1, 1)
	assert.False(t, blocked.Allowed)

	// Different endpoint and different client both have their own windows
	assert.True(t, limiter.CheckLimit(ctx, "1.2.3.4", "/api/ai/extract", 1, 1).Allowed)
	assert.True(t, limiter.CheckLimit(ctx, "5.6.7.8", "/api/ai/chat", 1, 1).Allowed)
}

type brokenStore struct{}

func (brokenStore) PurgeBefore(context.Context, time.Time) error { return errors.New("store down") }
func (brokenStore) Get(context.Context, string, time.Time) (*Entry, error) {
	return nil, errors.New("store down")
}
func (brokenStore) Put(context.Context, *Entry) error { return errors.New("store down") }

func TestLimiter_FailsOpenOnStoreError(t *testing.T) {
	limiter := NewLimiter(brokenStore{}, nil)

	result := limiter.CheckLimit(context.Background(), "1.2.3.4", "/api/ai/chat", 5, 1)
	assert.True(t, result.Allowed)
	assert.Equal(t, 5, result.Remaining)
}

func TestLimitFor(t *testing.T) {
	assert.Equal(t, EndpointLimit{MaxRequests: 30, WindowMinutes: 1}, LimitFor("/api/ai/chat"))
	assert.Equal(t, EndpointLimit{MaxRequests: 10, WindowMinutes: 1}, LimitFor("/api/ai/extract"))
	assert.Equal(t, defaultLimit, LimitFor("/some/other/path"))
}
