package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/SscSPs/exchange_engine/cmd/docs"
	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	"github.com/SscSPs/exchange_engine/internal/core/services"
	"github.com/SscSPs/exchange_engine/internal/handlers"
	"github.com/SscSPs/exchange_engine/internal/middleware"
	"github.com/SscSPs/exchange_engine/internal/platform/audit"
	"github.com/SscSPs/exchange_engine/internal/platform/config"
	"github.com/SscSPs/exchange_engine/internal/platform/ratelimit"
	"github.com/SscSPs/exchange_engine/internal/repositories/database/pgsql"
	"github.com/SscSPs/exchange_engine/internal/repositories/memory"
	"github.com/SscSPs/exchange_engine/internal/utils"
	"github.com/SscSPs/exchange_engine/migrations"
	"github.com/SscSPs/exchange_engine/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/ulule/limiter/v3"
)

const rateLimitCleanupInterval = time.Minute

// @title Exchange Engine API
// @version 1.0
// @description Ledger-consistent BASE/QUOTE exchange: conversions, limit orders, sweeps and reconciliation.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dbPool *pgxpool.Pool
	var repos portsrepo.RepositoryProvider
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("Using the in-memory store; state is lost on restart")
		repos = memory.NewStore().Provider(true)
	default:
		if cfg.RunMigrations {
			applied, err := migrations.Up(cfg.DatabaseURL, logger)
			if err != nil {
				logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
				os.Exit(1)
			}
			logger.Info("Database migrations checked", slog.Bool("applied", applied))
		}

		dbPool, err = database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck, logger)
		if err != nil {
			logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.ClosePgxPool(dbPool, logger)
		repos = pgsql.NewRepositoryProvider(dbPool)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	recorderOpts := []audit.Option{
		audit.WithStore(repos.AuditRepo),
		audit.WithMetrics(audit.NewMetrics(registry)),
		audit.WithLogger(logger),
	}
	if posthogClient.IsInitialized() {
		recorderOpts = append(recorderOpts, audit.WithEventSink(posthogClient))
	}
	recorder := audit.NewRecorder(recorderOpts...)

	serviceContainer, err := services.NewServiceContainer(cfg, repos, services.WithRecorder(recorder))
	if err != nil {
		logger.Error("Failed to build services", slog.String("error", err.Error()))
		os.Exit(1)
	}

	limits, err := buildRateLimits(ctx, cfg, dbPool, logger)
	if err != nil {
		logger.Error("Failed to configure rate limiting", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, request audit, recovery)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		middleware.RequestAudit(recorder),
		gin.Recovery(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.APIKeyHeader},
			ExposeHeaders:    []string{middleware.HeaderRateLimitLimit, middleware.HeaderRateLimitRemaining, middleware.HeaderRateLimitReset, middleware.HeaderRetryAfter},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.PosthogMiddleware(posthogClient),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, handlers.Dependencies{
		Services:   serviceContainer,
		Recorder:   recorder,
		RateLimits: limits,
		Gatherer:   registry,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
}

// buildRateLimits parses the per-endpoint budgets and opens the configured counter store.
func buildRateLimits(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, logger *slog.Logger) (handlers.RateLimits, error) {
	var limits handlers.RateLimits
	rules := []struct {
		formatted string
		dst       *ratelimit.Rule
	}{
		{cfg.RateLimitConvert, &limits.Convert},
		{cfg.RateLimitOrders, &limits.Orders},
		{cfg.RateLimitCancel, &limits.Cancel},
	}
	for _, r := range rules {
		rule, err := ratelimit.ParseRule(r.formatted)
		if err != nil {
			return limits, err
		}
		*r.dst = rule
	}

	var store limiter.Store
	switch cfg.RateLimitStore {
	case "redis":
		redisStore, client, err := ratelimit.NewRedisStore(ctx, cfg.RedisURL, cfg.RateLimitPrefix)
		if err != nil {
			return limits, err
		}
		go func() {
			<-ctx.Done()
			_ = client.Close()
		}()
		store = redisStore
	case "postgres":
		if dbPool == nil {
			logger.Warn("RATE_LIMIT_STORE=postgres needs STORE_DRIVER=postgres; falling back to memory")
			store = ratelimit.NewMemoryStore(cfg.RateLimitPrefix)
			break
		}
		pgStore := ratelimit.NewPostgresStore(dbPool, cfg.RateLimitPrefix)
		go ratelimit.RunCleanup(ctx, pgStore, rateLimitCleanupInterval, logger)
		store = pgStore
	default:
		store = ratelimit.NewMemoryStore(cfg.RateLimitPrefix)
	}

	logger.Info("Rate limiting configured", slog.String("store", cfg.RateLimitStore))
	limits.Limiter = ratelimit.New(store)
	return limits, nil
}
