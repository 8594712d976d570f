package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/tenant-guard/internal/adapter/api/handler"
	"github.com/user/tenant-guard/internal/adapter/api/middleware"
	"github.com/user/tenant-guard/internal/adapter/metrics"
	"github.com/user/tenant-guard/internal/domain"
	"github.com/user/tenant-guard/internal/pkg/config"
	"github.com/user/tenant-guard/internal/usecase"
)

// NewRouter creates and configures the main HTTP router.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	sessionValidator *usecase.SessionValidator,
	guard *usecase.TenantGuard,
	analyticsValidator *usecase.AnalyticsValidator,
	reader domain.AnalyticsReader,
	m *metrics.SecurityMetrics,
) http.Handler {
	analyticsHandler := handler.NewAnalyticsHandler(guard, analyticsValidator, reader, m, logger)
	sessionHandler := handler.NewSessionHandler()

	r := chi.NewRouter()
	r.Use(middleware.Tracing())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, m, logger))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(sessionValidator, m, logger))
		r.Get("/session", sessionHandler.Get)
		r.Post("/analytics/query", analyticsHandler.Query)
	})

	return r
}
