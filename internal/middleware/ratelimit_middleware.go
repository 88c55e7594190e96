package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"insight_gateway/internal/ratelimit"
	"insight_gateway/internal/settings"
	"insight_gateway/internal/utils"
)

// RateLimit enforces the per-endpoint fixed-window limits. The whole layer
// is gated by the useRateLimit flag, and storage failures inside the limiter
// fail open, so this middleware can only ever slow abusive clients, never
// take the API down.
func RateLimit(limiter *ratelimit.Limiter, flags *settings.FlagService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !flags.IsEnabled(r.Context(), settings.FlagRateLimit) {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			endpoint := r.URL.Path
			limit := ratelimit.LimitFor(endpoint)

			result := limiter.CheckLimit(r.Context(), ip, endpoint, limit.MaxRequests, limit.WindowMinutes)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.MaxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.UnixMilli(), 10))

			if !result.Allowed {
				utils.RespondWithJSON(w, http.StatusTooManyRequests, map[string]string{
					"error":     "Rate limit exceeded",
					"message":   fmt.Sprintf("Too many requests. Try again after %s", result.ResetTime.UTC().Format("2006-01-02T15:04:05.000Z07:00")),
					"resetTime": result.ResetTime.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
