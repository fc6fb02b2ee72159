// The store-gateway binary is the composition root for the cache
// engine: it constructs the shared cache, the invalidation coordinator,
// and the broadcast transports, and serves the operational HTTP
// surface (stats, metrics, the admin WebSocket feed, and an
// invalidation escape hatch for operators).
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wighaven/smartcache/pkg/broadcast"
	"github.com/wighaven/smartcache/pkg/cache"
	"github.com/wighaven/smartcache/pkg/invalidate"
	"github.com/wighaven/smartcache/pkg/logging"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logging.Setup(logging.DefaultConfig())
		logger := logging.NewLogger("store-gateway")
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger("store-gateway")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Shared cache instance; every service reads through it.
	store := cache.New(cache.Config{
		Store: cache.StoreConfig{
			MaxItems:     cfg.CacheMaxItems,
			MaxSizeBytes: cfg.CacheMaxSizeBytes,
			TouchOnRead:  cfg.CacheTouchOnRead,
		},
	})

	// Broadcast transports: WebSocket hub always; Redis when configured.
	hub := broadcast.NewHub()
	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Broadcast hub stopped")
		}
	}()

	notify := broadcast.NotifyFunc(hub.Notify)
	if cfg.RedisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisURL).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		publisher := broadcast.NewRedisPublisher(redisClient, "")
		notify = broadcast.Fanout(hub.Notify, publisher.Notify)
		logger.Info().Str("addr", cfg.RedisURL).Msg("Redis invalidation publisher enabled")
	}

	coordinator := invalidate.New(store, invalidate.DefaultRules(), notify)

	if cfg.StatsInterval > 0 {
		go logStats(ctx, store, logger, cfg.StatsInterval)
	}

	router := newRouter(store, coordinator, hub)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	logger.Info().Str("port", cfg.Port).Msg("Starting store gateway")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Server failed")
	}
	logger.Info().Msg("Store gateway stopped")
}

// newRouter builds the operational HTTP surface.
func newRouter(store *cache.Cache, coordinator *invalidate.Coordinator, hub *broadcast.Hub) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealth)
	r.Get("/cache/stats", handleStats(store))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Method(http.MethodGet, "/ws", hub)
	r.Post("/internal/invalidate/{entity}", handleInvalidate(coordinator))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"store-gateway"}`))
}

// handleStats returns the cache's counter snapshot for dashboards.
func handleStats(store *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(store.Stats()); err != nil {
			http.Error(w, "failed to encode stats", http.StatusInternalServerError)
		}
	}
}

// handleInvalidate is the operator escape hatch: it drives the same
// coordinator the write paths use, so a manual purge also reaches
// subscribers. The request body, if any, becomes the event metadata.
func handleInvalidate(coordinator *invalidate.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity := chi.URLParam(r, "entity")
		if entity == "" {
			http.Error(w, "missing entity type", http.StatusBadRequest)
			return
		}

		var meta invalidate.Metadata
		if r.Body != nil {
			// Metadata is optional; a bad body is the caller's bug.
			if err := json.NewDecoder(r.Body).Decode(&meta); err != nil && !errors.Is(err, io.EOF) {
				http.Error(w, "invalid metadata body", http.StatusBadRequest)
				return
			}
		}

		coordinator.Invalidate(r.Context(), invalidate.EntityType(entity), meta)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"accepted"}`))
	}
}

// logStats periodically logs a read-only stats snapshot. The snapshot
// uses atomic reads and brief store locks only; it never blocks cache
// operations across the log write.
func logStats(ctx context.Context, store *cache.Cache, logger zerolog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := store.Stats()
			logger.Info().
				Uint64("hits", stats.Hits).
				Uint64("misses", stats.Misses).
				Uint64("deduped", stats.Deduped).
				Uint64("stale_hits", stats.StaleHits).
				Uint64("invalidations", stats.Invalidations).
				Uint64("evictions", stats.Evictions).
				Int("entries", stats.Entries).
				Int("size_bytes", stats.SizeBytes).
				Float64("hit_rate", stats.HitRate).
				Msg("Cache stats")
		}
	}
}
