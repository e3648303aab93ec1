package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"nexttrip.rieles.app/internal/app"
	"nexttrip.rieles.app/internal/cache"
	"nexttrip.rieles.app/internal/feed"
	"nexttrip.rieles.app/internal/logging"
	"nexttrip.rieles.app/internal/metrics"
	"nexttrip.rieles.app/internal/restapi"
)

const startupVerifyTimeout = time.Minute

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	var cfg app.Config
	var cacheBackend string
	var locationTimeoutMS int

	flag.IntVar(&cfg.Port, "port", envInt("PORT", 4000), "API server port")
	flag.StringVar(&cfg.Env, "env", envString("ENV", "development"), "Environment (development|staging|production)")
	flag.StringVar(&cfg.BaseURL, "base-url", os.Getenv("REMOTE_BASE_URL"), "Base URL of the remote schedule feed")
	flag.StringVar(&cacheBackend, "cache", envString("CACHE_BACKEND", "memory"), "Cache backend (memory|redis)")
	flag.IntVar(&locationTimeoutMS, "gps-timeout-ms", envInt("GPS_FIX_TIMEOUT_MS", 10000), "Per-attempt position acquisition timeout in milliseconds")
	flag.IntVar(&cfg.LookaheadDays, "lookahead-days", envInt("LOOKAHEAD_DAYS", 14), "How many days ahead to scan for a departure")
	flag.IntVar(&cfg.MaxUnmatchedKeys, "cache-max-unmatched", envInt("CACHE_MAX_UNMATCHED_KEYS_FOR_CLEAR", 3), "Checksum mismatches tolerated before the cache is cleared wholesale")
	flag.Parse()

	cfg.LocationTimeout = time.Duration(locationTimeoutMS) * time.Millisecond

	var logger *slog.Logger
	if cfg.Env == "production" {
		logger = logging.NewStructuredLogger(os.Stdout, slog.LevelInfo)
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}

	if cfg.BaseURL == "" {
		logger.Error("a feed base URL is required (-base-url or REMOTE_BASE_URL)")
		os.Exit(1)
	}

	var store cache.Store
	switch cacheBackend {
	case "redis":
		redisStore := cache.NewRedisStore(cache.NewRedisClient())
		defer logging.SafeCloseWithLogging(redisStore, logger, "redis store")
		store = redisStore
	case "memory":
		store = cache.NewMemoryStore()
	default:
		logger.Error("unknown cache backend", "cache", cacheBackend)
		os.Exit(1)
	}

	collector := metrics.NewCollector()

	application := &app.Application{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Metrics: collector,
	}

	// Reconcile cached documents against the remote checksums before taking
	// traffic, so a stale cache never outlives a deploy.
	verifyCtx, cancel := context.WithTimeout(context.Background(), startupVerifyTimeout)
	fetcher := feed.NewFetcher(feed.NewURLs(cfg.BaseURL), nil, store, logger, collector)
	fetcher.VerifyCachedResources(verifyCtx, cfg.MaxUnmatchedKeys)
	cancel()

	api := restapi.NewRestAPI(application)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env, "cache", cacheBackend)

	err := srv.ListenAndServe()
	logger.Error(err.Error())
	os.Exit(1)
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
