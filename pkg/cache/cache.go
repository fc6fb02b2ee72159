package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FetchFunc loads a value from the upstream data source on a cache miss
// or refresh. It must return a non-nil value on success; represent
// "no data" with an empty-but-defined value (an empty slice, a zero
// struct) so that it can be cached and told apart from a miss.
type FetchFunc func(ctx context.Context) (any, error)

// Config holds the configuration of a Cache.
type Config struct {
	// Store bounds and recency policy.
	Store StoreConfig

	// TTLs maps resource types to expiry durations.
	// Nil falls back to DefaultTTLTable.
	TTLs TTLTable
}

// DefaultConfig returns a Config with stock bounds and TTL policy.
func DefaultConfig() Config {
	return Config{
		Store: DefaultStoreConfig(),
		TTLs:  DefaultTTLTable(),
	}
}

// Cache combines the bounded store with single-flight fetch
// deduplication and stale-while-revalidate serving. One instance is
// shared process-wide; construct it at the composition root and inject
// it into the services that need it.
type Cache struct {
	store    *Store
	flight   *flightTracker
	ttls     TTLTable
	logger   zerolog.Logger
	counters counters
}

// New creates a Cache.
func New(cfg Config) *Cache {
	if cfg.TTLs == nil {
		cfg.TTLs = DefaultTTLTable()
	}
	logger := log.With().Str("component", "cache").Logger()
	return &Cache{
		store:  NewStore(cfg.Store),
		flight: newFlightTracker(),
		ttls:   cfg.TTLs,
		logger: logger,
	}
}

// Store returns the underlying store, for wiring into the invalidation
// coordinator.
func (c *Cache) Store() *Store {
	return c.store
}

// options holds per-call settings resolved from Option values.
type options struct {
	typ         Type
	ttlOverride time.Duration
	swr         bool
	bypass      bool
}

// Option adjusts a single GetOrFetch call.
type Option func(*options)

// WithType selects the TTL table entry for the stored value.
func WithType(t Type) Option {
	return func(o *options) { o.typ = t }
}

// WithTTL overrides the TTL for this call, taking precedence over the
// type's table entry.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttlOverride = ttl }
}

// WithStaleWhileRevalidate opts this call into serving a stale value
// immediately while a detached refresh runs in the background. The
// refresh failure, if any, never reaches this caller.
func WithStaleWhileRevalidate() Option {
	return func(o *options) { o.swr = true }
}

// Bypass skips the cache read and write entirely but keeps the
// single-flight guarantee, so a burst of strict-freshness callers
// (payment verification, stock checks) still produces one upstream
// fetch rather than a storm.
func Bypass() Option {
	return func(o *options) { o.bypass = true }
}

// GetOrFetch is the read path. It returns the cached value when fresh;
// serves a stale value and refreshes in the background when the caller
// opted into stale-while-revalidate; otherwise fetches through the
// single-flight tracker, stores the result under the resolved TTL, and
// returns it. Fetch errors propagate to the caller and are never cached.
func (c *Cache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc, opts ...Option) (any, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.bypass {
		lookupsTotal.WithLabelValues(outcomeBypass).Inc()
		return c.fetchShared(ctx, key, fetch, o, false)
	}

	value, found, stale := c.store.Get(key)
	if found && !stale {
		c.counters.hits.Add(1)
		lookupsTotal.WithLabelValues(outcomeHit).Inc()
		return value, nil
	}

	if found && stale && o.swr {
		c.counters.staleHits.Add(1)
		lookupsTotal.WithLabelValues(outcomeStale).Inc()
		c.refreshAsync(key, fetch, o)
		return value, nil
	}

	// Miss, or stale without stale-while-revalidate.
	return c.fetchShared(ctx, key, fetch, o, true)
}

// fetchShared runs the fetch under the single-flight guarantee and, when
// store is true, writes the result back under the resolved TTL.
func (c *Cache) fetchShared(ctx context.Context, key string, fetch FetchFunc, o options, store bool) (any, error) {
	// ran distinguishes the caller whose fetch actually executed from
	// those that joined its flight. singleflight's shared flag can't:
	// it is true for the originator as well once anyone joined.
	var ran bool
	value, err, _ := c.flight.do(key, func() (any, error) {
		ran = true
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, fmt.Errorf("fetch for %q: %w", key, ErrNilValue)
		}
		if store {
			ttl := c.ttls.Resolve(o.ttlOverride, o.typ)
			if err := c.store.Set(key, v, ttl); err != nil {
				return nil, fmt.Errorf("store %q: %w", key, err)
			}
		}
		return v, nil
	})

	if err != nil {
		fetchErrorsTotal.WithLabelValues("direct").Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("Fetch failed")
		return nil, err
	}

	if !ran {
		c.counters.deduped.Add(1)
		lookupsTotal.WithLabelValues(outcomeDeduped).Inc()
	} else if store {
		c.counters.misses.Add(1)
		lookupsTotal.WithLabelValues(outcomeMiss).Inc()
	}

	return value, nil
}

// refreshAsync spawns a detached refresh for key unless one is already
// in flight. The refresh runs with its own context: the triggering
// request already has its value and may be torn down before the
// refresh completes.
//
// The fetch goes through the same single-flight tracker as miss
// fetches, so a strict read arriving while the refresh runs joins it
// instead of opening a second upstream fetch for the key. The refresh
// gate only suppresses duplicate goroutine spawns.
func (c *Cache) refreshAsync(key string, fetch FetchFunc, o options) {
	if !c.flight.tryBeginRefresh(key) {
		return
	}

	go func() {
		defer c.flight.endRefresh(key)

		_, err, _ := c.flight.do(key, func() (any, error) {
			v, err := fetch(context.Background())
			if err != nil {
				return nil, err
			}
			if v == nil {
				return nil, fmt.Errorf("refresh for %q: %w", key, ErrNilValue)
			}
			ttl := c.ttls.Resolve(o.ttlOverride, o.typ)
			if err := c.store.Set(key, v, ttl); err != nil {
				return nil, fmt.Errorf("store %q: %w", key, err)
			}
			return v, nil
		})
		if err != nil {
			fetchErrorsTotal.WithLabelValues("refresh").Inc()
			c.logger.Warn().Err(err).Str("key", key).Msg("Background refresh failed, keeping stale value")
			return
		}

		c.logger.Debug().Str("key", key).Msg("Background refresh completed")
	}()
}

// Delete removes a single key. Returns false if absent.
func (c *Cache) Delete(key string) bool {
	return c.store.Delete(key)
}

// DeleteByPrefix removes all keys with the given prefix and returns the
// count removed.
func (c *Cache) DeleteByPrefix(prefix string) int {
	return c.store.DeleteByPrefix(prefix)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.store.Clear()
}

// Fetch is a typed convenience over GetOrFetch. The fetch function
// returns a concrete T, and cached values are asserted back to T; a
// value of a different type under the same key is a key-collision bug
// and surfaces as an error.
func Fetch[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	v, err := c.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}, opts...)
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache key %q holds %T, want %T", key, v, zero)
	}
	return typed, nil
}
