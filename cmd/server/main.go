package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/degree-audit/internal/audit"
	"github.com/stemsi/degree-audit/internal/catalog"
	"github.com/stemsi/degree-audit/internal/config"
	"github.com/stemsi/degree-audit/internal/database"
	"github.com/stemsi/degree-audit/internal/handler"
	"github.com/stemsi/degree-audit/internal/logger"
	"github.com/stemsi/degree-audit/internal/middleware"
	"github.com/stemsi/degree-audit/internal/registry"
	"github.com/stemsi/degree-audit/internal/repository"
	"github.com/stemsi/degree-audit/internal/router"
	"github.com/stemsi/degree-audit/internal/service"
	"github.com/stemsi/degree-audit/internal/transcript"
	"github.com/stemsi/degree-audit/internal/validator"
	"github.com/stemsi/degree-audit/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Degree Audit service")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Load Major Registry ───────────────────────────────────────────
	reg, err := loadRegistry(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load major registry")
	}
	log.Info().Int("majors", len(reg.Majors())).Str("file", cfg.RegistryFile).Msg("Major registry loaded")

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Catalog ────────────────────────────────────────────
	catalogRepo := repository.NewCatalogRepository(pool)
	cachedCatalog := catalog.NewCachedProvider(catalogRepo, rdb, cfg.CatalogCacheTTL, log)

	// ─── Initialize Audit Engine ───────────────────────────────────────
	resolver := audit.NewResolver(reg, cachedCatalog, cfg.CatalogFetchTimeout, log)
	engine := audit.NewEngine(resolver, log)

	// ─── Initialize Services ──────────────────────────────────────────
	auditService := service.NewAuditService(engine, transcript.NewFilter(cfg.PassingGrades))
	majorService := service.NewMajorService(reg)
	catalogService := service.NewCatalogService(catalogRepo, cachedCatalog, reg, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Audit:   handler.NewAuditHandler(auditService),
		Major:   handler.NewMajorHandler(majorService),
		Catalog: handler.NewCatalogHandler(catalogService),
		System: handler.NewSystemHandler(map[string]handler.Pinger{
			"postgres": pool,
			"redis": handler.PingFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}),
		}, log),
	}

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load every registered catalog table into Redis before accepting
	// traffic. A partial warm is logged and tolerated.
	warm := catalogService.Prewarm(ctx)
	if len(warm.Failed) > 0 {
		log.Warn().Strs("failed", warm.Failed).Msg("Cache prewarm incomplete")
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(ctx)
	warmWorker := worker.NewCacheWarmWorker(catalogService, cfg.CatalogCacheRefresh, time.Minute, log)
	workerDone := make(chan struct{})
	go func() {
		warmWorker.Start(workerCtx)
		close(workerDone)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	auditLimiter := middleware.NewRateLimiter(ctx, cfg.AuditRateLimitPerMinute, time.Minute)
	r := router.SetupRouter(handlers, cfg, log, auditLimiter)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for an in-flight warm to finish.
	workerCancel()
	<-workerDone

	// 3. Stop the rate limiter sweeper.
	cancel()

	log.Info().Msg("Shutdown complete")
}

func loadRegistry(cfg *config.Config) (*registry.Registry, error) {
	if cfg.RegistryFile != "" {
		return registry.LoadFile(cfg.RegistryFile)
	}
	return registry.Default()
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
