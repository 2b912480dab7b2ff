// Involution positions API: computes tropical and sidereal planetary
// positions from JPL ephemeris kernels behind a caching, rate-limited HTTP
// surface (§2, §6.1).
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/astrocore/involution/internal/ayanamsha"
	"github.com/astrocore/involution/internal/cache"
	"github.com/astrocore/involution/internal/config"
	"github.com/astrocore/involution/internal/ephemeris"
	"github.com/astrocore/involution/internal/geo"
	"github.com/astrocore/involution/internal/handlers"
	"github.com/astrocore/involution/internal/kernels"
	custommw "github.com/astrocore/involution/internal/middleware"
	"github.com/astrocore/involution/internal/metrics"
	"github.com/astrocore/involution/internal/orchestrator"
	"github.com/astrocore/involution/internal/ratelimit"
	"github.com/astrocore/involution/internal/timeresolve"
	"github.com/redis/go-redis/v9"
)

// reportGaugesPeriodically keeps the queue-depth and cache gauges fresh
// between scrapes. The other series that are updated at all are updated
// inline where the event happens; the HTTP request counter and duration
// histogram and the kernel-verification counter are registered but no code
// path updates them.
func reportGaugesPeriodically(pool *ephemeris.Pool, c *cache.Cache) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		metrics.WorkerPoolQueueSize.Set(float64(pool.QueueDepth()))
		metrics.CacheSizeEntries.Set(float64(c.L1Len()))
		metrics.CacheHitRate.Set(c.HitRate())
	}
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	kernelMgr, err := kernels.Initialize(cfg.KernelBundle, cfg.KernelsPath)
	if err != nil {
		logger.Error("failed to initialize kernel bundle", "error", err)
		os.Exit(1)
	}
	logger.Info("kernel bundle loaded",
		"tag", kernelMgr.BundleTag,
		"kernels", kernelMgr.KernelPaths(),
		"total_size", humanize.Bytes(uint64(kernelMgr.TotalBytes())),
	)

	pool, err := ephemeris.Start(cfg.Workers, kernelMgr, cfg.QueueHighWaterMark, logger)
	if err != nil {
		logger.Error("failed to start compute worker pool", "error", err)
		os.Exit(1)
	}
	defer pool.Shutdown(10 * time.Second)
	logger.Info("compute worker pool started", "workers", cfg.Workers, "high_water_mark", cfg.QueueHighWaterMark)

	respCache, err := cache.New(cfg.CacheL1Size, cfg.CacheTTL, cfg.CacheL2URL, cfg.CacheL2Enabled, logger)
	if err != nil {
		logger.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer respCache.Close()
	if respCache.L2Enabled() {
		logger.Info("L2 cache enabled")
	} else {
		logger.Warn("L2 cache disabled; running L1-only")
	}

	ayanamshas, err := ayanamsha.Load(cfg.AyanamshaRegistryPath)
	if err != nil {
		logger.Error("failed to load ayanamsha registry", "error", err)
		os.Exit(1)
	}
	logger.Info("ayanamsha registry loaded", "ids", ayanamshas.IDs())

	patches, err := timeresolve.LoadPatchRules(cfg.PatchesPath)
	if err != nil {
		logger.Error("failed to load historical patch rules", "error", err)
		os.Exit(1)
	}
	gazetteer := geo.NewGazetteer()
	resolver := timeresolve.NewResolver(gazetteer, patches, "involution-rules-1")
	logger.Info("time resolver ready", "patch_rules", len(patches))

	var rateLimitRedis *redis.Client
	if cfg.CacheL2Enabled && cfg.CacheL2URL != "" {
		if opt, parseErr := redis.ParseURL(cfg.CacheL2URL); parseErr == nil {
			rateLimitRedis = redis.NewClient(opt)
		}
	}
	limiter := ratelimit.New(cfg.RateLimitEnabled, cfg.RateLimitPerMinute, rateLimitRedis, logger)

	orch := orchestrator.New(kernelMgr, pool, ayanamshas, resolver, respCache, cfg.RequestDeadline, logger)

	metrics.WorkerPoolSize.Set(float64(cfg.Workers))
	go reportGaugesPeriodically(pool, respCache)

	h := &handlers.Handlers{
		Orchestrator:       orch,
		RateLimiter:        limiter,
		Logger:             logger,
		KernelMgr:          kernelMgr,
		Pool:               pool,
		Cache:              respCache,
		Ayanamshas:         ayanamshas,
		RuleSetVersion:     resolver.RuleSetVersion(),
		WorkerPoolSize:     cfg.Workers,
		QueueHighWaterMark: cfg.QueueHighWaterMark,
	}

	r := chi.NewRouter()
	r.Use(custommw.RequestIDChi)
	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.LogFailedRequestBodies)
	r.Use(custommw.Logger)
	r.Use(custommw.Recoverer)
	r.Use(custommw.Timeout(cfg.RequestDeadline + 2*time.Second))
	r.Use(custommw.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Forwarded-For"},
		ExposedHeaders:   []string{"ETag", "X-Request-Id", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(custommw.ContentType("application/json"))
		r.Post("/positions", h.Positions)
		r.Post("/time/resolve", h.TimeResolve)
		r.Get("/ayanamshas", h.Ayanamshas)
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}
