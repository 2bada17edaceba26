// Package main is the entry point for the API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/reelworks/cinerec/internal/api"
	"github.com/reelworks/cinerec/internal/audit"
	"github.com/reelworks/cinerec/internal/auth"
	"github.com/reelworks/cinerec/internal/config"
	"github.com/reelworks/cinerec/internal/health"
	"github.com/reelworks/cinerec/internal/middleware"
	"github.com/reelworks/cinerec/internal/model"
	"github.com/reelworks/cinerec/internal/ranking"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configFile := flag.String("config", "", "path to optional YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("Cinerec API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if err := run(*configFile); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run wires the service together and blocks until shutdown. It returns an
// error rather than exiting so deferred cleanup (redis client, audit
// database) runs on every failure path.
func run(configFile string) error {
	cfg, errs := config.Load(configFile)
	env := config.DefaultEnv
	if cfg != nil {
		env = cfg.Env
	}
	logger := middleware.NewLogger(env)
	slog.SetDefault(logger)

	if len(errs) > 0 {
		for _, err := range errs {
			logger.Error("configuration error", "error", err)
		}
		return fmt.Errorf("invalid configuration (%d errors)", len(errs))
	}
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	// The shared session password is only ever compared against its hash.
	passwordHash, err := auth.HashPassword(cfg.SessionPassword)
	if err != nil {
		return fmt.Errorf("hash session password: %w", err)
	}

	scoringModel, err := model.LoadLinear(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("load scoring model from %s: %w", cfg.ModelPath, err)
	}

	authenticator := auth.NewAuthenticator(cfg.JWTSecret, cfg.SessionExpiration)

	// Metrics registry shared by the HTTP layer and the ranker.
	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}
	rankMetrics := ranking.NewMetrics()
	if err := rankMetrics.Register(registry); err != nil {
		return fmt.Errorf("register ranking metrics: %w", err)
	}

	// Rate limiting backend: Redis when configured so limits hold across
	// replicas, otherwise per-process in-memory windows.
	var (
		rateLimitStore middleware.RateLimitStore
		redisChecker   *health.RedisChecker
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("failed to close redis client", "error", err)
			}
		}()
		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient).WithMetrics(httpMetrics)
		redisChecker = health.NewRedisChecker(redisClient)
		logger.Info("rate limiting via redis", "addr", cfg.RedisAddr)
	} else {
		memStore := middleware.NewInMemoryRateLimitStore()
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				memStore.Cleanup()
			}
		}()
		rateLimitStore = memStore
	}

	// Audit trail: Postgres when configured, otherwise in memory.
	var (
		auditRepo audit.Repository
		dbChecker *health.DBChecker
	)
	if cfg.AuditDatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.AuditDatabaseURL)
		if err != nil {
			return fmt.Errorf("open audit database: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close audit database", "error", err)
			}
		}()
		pgRepo, err := audit.NewPostgresRepository(db)
		if err != nil {
			return fmt.Errorf("initialize audit repository: %w", err)
		}
		auditRepo = pgRepo
		dbChecker = health.NewDBChecker(db)
		logger.Info("audit trail persisted to postgres")
	} else {
		auditRepo = audit.NewInMemoryRepository()
		logger.Warn("audit trail is in-memory and will not survive restarts")
	}

	authHandlers := api.NewAuthHandlers(authenticator, passwordHash)
	recommendHandlers := api.NewRecommendHandlers(scoringModel, ranking.New(rankMetrics), auditRepo)
	scoreHandlers := api.NewScoreHandlers(auditRepo)
	healthConfig := api.HealthHandlersConfig{}
	if dbChecker != nil {
		healthConfig.DBChecker = dbChecker
	}
	if redisChecker != nil {
		healthConfig.RedisChecker = redisChecker
	}
	healthHandlers := api.NewHealthHandlers(healthConfig)

	loginLimiter := middleware.RateLimiter(rateLimitStore, middleware.DefaultLoginLimit(),
		middleware.IPKeyFunc(), "login", httpMetrics)
	tokenGuard := middleware.RequireToken(authenticator)

	mux := http.NewServeMux()
	mux.HandleFunc("/", api.Index)
	mux.Handle("/api/login", loginLimiter(http.HandlerFunc(authHandlers.Login)))
	mux.Handle("/api/protected", tokenGuard(http.HandlerFunc(api.Protected)))
	mux.HandleFunc("/api/recommend", recommendHandlers.Recommend)
	mux.HandleFunc("/api/recommend/", recommendHandlers.Recommend)
	mux.HandleFunc("/api/score", scoreHandlers.Score)
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Middleware chain, outermost first: RequestID -> Tracing ->
	// HTTPMetrics -> RateLimiter -> Logging. Logging sits closest to the
	// handlers so it sees the error codes and identity they attach.
	var handler http.Handler = mux
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RateLimiter(rateLimitStore, middleware.DefaultGlobalLimit(),
		middleware.IPKeyFunc(), "global", httpMetrics)(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Tracing("cinerec-api")(handler)
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Block until the server fails or an interrupt asks for shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
