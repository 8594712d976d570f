package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/user/tenant-guard/internal/adapter/api"
	"github.com/user/tenant-guard/internal/adapter/audit"
	"github.com/user/tenant-guard/internal/adapter/metrics"
	"github.com/user/tenant-guard/internal/adapter/repository/postgres"
	redisrepo "github.com/user/tenant-guard/internal/adapter/repository/redis"
	"github.com/user/tenant-guard/internal/pkg/config"
	"github.com/user/tenant-guard/internal/pkg/logger"
	"github.com/user/tenant-guard/internal/usecase"

	_ "github.com/lib/pq" // postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewSecurityMetrics()

	// --- Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())

	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database and Redis Connections ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisAddr)
	if err != nil {
		logger.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("could not connect to redis, session-security checks degraded", "error", err)
	}

	// --- Audit Sink ---
	sink := newAuditSink(cfg, db, logger, m)
	defer sink.Close()

	// --- Repositories ---
	userRepo := postgres.NewUserRepository(db)
	businessRepo := postgres.NewBusinessRepository(db, logger, cfg.BusinessCacheTTL)
	resourceRepo := postgres.NewResourceRepository(db)
	analyticsRepo := postgres.NewAnalyticsRepository(db, logger)
	sessionActivityRepo := redisrepo.NewSessionActivityRepository(redisClient, logger, cfg.SessionActivityTTL)

	// --- Validators ---
	sessionValidator := usecase.NewSessionValidator(userRepo, businessRepo, sessionActivityRepo, sink, logger, cfg.JWTSecret)
	guard := usecase.NewTenantGuard(businessRepo, resourceRepo, sink, logger)
	analyticsValidator := usecase.NewAnalyticsValidator(guard, sink, logger)

	// --- HTTP Server ---
	router := api.NewRouter(cfg, logger, sessionValidator, guard, analyticsValidator, analyticsRepo, m)
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting api server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			stop()
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}

// newAuditSink wires the configured audit backend behind the
// fire-and-forget sink.
func newAuditSink(cfg *config.Config, db *sql.DB, logger *slog.Logger, m *metrics.SecurityMetrics) *audit.Sink {
	if cfg.AuditBackend == "kafka" && len(cfg.KafkaBrokers) > 0 {
		publisher := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAuditTopic, logger)
		return audit.NewSink(publisher, logger, cfg.AuditBufferSize, m)
	}
	return audit.NewSink(postgres.NewAuditRepository(db), logger, cfg.AuditBufferSize, m)
}
