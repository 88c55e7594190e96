package httpapi

import (
	"net/http"

	"insight_gateway/internal/config"
	"insight_gateway/internal/middleware"
	"insight_gateway/internal/monitoring"
	"insight_gateway/internal/ratelimit"
	"insight_gateway/internal/services"
	"insight_gateway/internal/settings"
	"insight_gateway/internal/utils"
)

// Dependencies aggregates all services the HTTP layer needs. Wiring happens
// in main; handlers only see this struct.
type Dependencies struct {
	AI          *services.Service
	Settings    *settings.Service
	Flags       *settings.FlagService
	Monitoring  *monitoring.Service
	RateLimiter *ratelimit.Limiter
	Logger      *utils.Logger
}

// NewRouter registers all routes with their middleware chains.
func NewRouter(cfg *config.Config, deps *Dependencies) *http.ServeMux {
	if deps.Logger == nil {
		deps.Logger = utils.NewLogger("HTTP")
	}

	mux := http.NewServeMux()

	rateLimited := middleware.RateLimit(deps.RateLimiter, deps.Flags)
	adminJWT := middleware.AdminJWT(cfg.JWTSecret, cfg.AdminEmails)

	// AI endpoints: request ID for log correlation, then the rate limiter
	mux.Handle("/api/ai/insights", middleware.RequestID(rateLimited(http.HandlerFunc(deps.handleInsights))))
	mux.Handle("/api/ai/chat", middleware.RequestID(rateLimited(http.HandlerFunc(deps.handleChat))))
	mux.Handle("/api/ai/extract", middleware.RequestID(rateLimited(http.HandlerFunc(deps.handleExtract))))

	// Admin endpoints: JWT plus allow-list
	mux.Handle("/admin/provider", middleware.RequestID(adminJWT(http.HandlerFunc(deps.handleAdminProvider))))
	mux.Handle("/admin/features", middleware.RequestID(adminJWT(http.HandlerFunc(deps.handleAdminFeatures))))
	mux.Handle("/admin/monitoring", middleware.RequestID(adminJWT(http.HandlerFunc(deps.handleAdminMonitoring))))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}
