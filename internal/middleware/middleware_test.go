package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight_gateway/internal/auth"
	"insight_gateway/internal/ratelimit"
	"insight_gateway/internal/settings"
)

type stubSettingsRepo struct {
	stored *settings.ProviderSettings
}

func (r *stubSettingsRepo) Load(context.Context) (*settings.ProviderSettings, error) {
	if r.stored == nil {
		return settings.DefaultSettings(), nil
	}
	return r.stored, nil
}

func (r *stubSettingsRepo) Save(_ context.Context, s *settings.ProviderSettings) error {
	r.stored = s
	return nil
}

func newFlagService(flags map[string]bool) *settings.FlagService {
	stored := settings.DefaultSettings()
	stored.FeatureFlags = flags
	svc := settings.NewService(&stubSettingsRepo{stored: stored}, nil)
	return settings.NewFlagService(svc, nil)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetRequestID(r.Context())
		require.True(t, ok)
		seen = id
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_ReusesInboundHeader(t *testing.T) {
	handler := RequestID(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", ClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "127.0.0.1", ClientIP(req))
}

func TestRateLimit_AllowsAndSetsHeaders(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), nil)
	handler := RateLimit(limiter, newFlagService(nil))(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/ai/extract", nil)
	req.Header.Set("X-Real-IP", "198.51.100.2")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), nil)
	handler := RateLimit(limiter, newFlagService(nil))(okHandler())

	var rec *httptest.ResponseRecorder
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/ai/extract", nil)
		req.Header.Set("X-Real-IP", "198.51.100.2")
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
}

func TestRateLimit_IndependentClients(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), nil)
	handler := RateLimit(limiter, newFlagService(nil))(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/ai/extract", nil)
		req.Header.Set("X-Real-IP", "198.51.100.2")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/ai/extract", nil)
	req.Header.Set("X-Real-IP", "198.51.100.3")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, "a second client has its own window")
}

func TestRateLimit_DisabledByFlag(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), nil)
	handler := RateLimit(limiter, newFlagService(map[string]bool{settings.FlagRateLimit: false}))(okHandler())

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/ai/extract", nil)
		req.Header.Set("X-Real-IP", "198.51.100.2")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestAdminJWT(t *testing.T) {
	secret := []byte("secret")
	allowed := []string{"admin@example.com"}

	var gotEmail string
	handler := AdminJWT(secret, allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := GetAdminEmail(r.Context())
		require.True(t, ok)
		gotEmail = email
	}))

	token, _, err := auth.GenerateAdminJWT("admin@example.com", secret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/provider", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin@example.com", gotEmail)
}

func TestAdminJWT_MissingToken(t *testing.T) {
	handler := AdminJWT([]byte("secret"), nil)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/provider", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWT_NotOnAllowList(t *testing.T) {
	secret := []byte("secret")
	handler := AdminJWT(secret, []string{"other@example.com"})(okHandler())

	token, _, err := auth.GenerateAdminJWT("intruder@example.com", secret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/provider", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminJWT_BadToken(t *testing.T) {
	handler := AdminJWT([]byte("secret"), []string{"admin@example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/provider", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
