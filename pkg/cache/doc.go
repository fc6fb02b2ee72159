// Package cache provides a bounded in-process cache with TTL expiry,
// LRU eviction, single-flight fetch deduplication, and
// stale-while-revalidate serving.
//
// The cache is the shared read path for storefront and admin services:
// one instance is constructed at the composition root and injected
// everywhere. It has the following properties:
//
//   - Bounded residency: at most MaxItems entries and MaxSizeBytes
//     estimated bytes; overflow evicts least-recently-used entries
//   - Per-entry TTL resolved from a central type table
//   - Single-flight: concurrent callers for the same missing key share
//     one upstream fetch instead of stampeding the data source
//   - Stale-while-revalidate: opted-in callers get an expired value
//     immediately while a detached refresh runs for future callers
//   - Fetch errors are never cached; the next call retries
//
// # Basic Usage
//
//	c := cache.New(cache.DefaultConfig())
//
//	settings, err := cache.Fetch(ctx, c, keys.Settings(),
//		func(ctx context.Context) (Settings, error) {
//			return loadSettings(ctx, db)
//		},
//		cache.WithType(cache.TypeSettings),
//		cache.WithStaleWhileRevalidate(),
//	)
//
// # Strict Freshness
//
// Reads that must never be stale or deduplicated against a cached value
// (payment verification, stock checks at checkout) bypass the cache but
// keep storm protection:
//
//	v, err := c.GetOrFetch(ctx, key, fetch, cache.Bypass())
//
// # TTL Policy
//
// Callers pass a resource type, not a raw duration; the table in ttl.go
// is the single place expiry policy lives. Per-call WithTTL overrides
// the table when a call site genuinely needs it.
//
// # Recency Policy
//
// By default a plain read does not bump an entry's LRU recency; only
// writes do. Under read-heavy load this makes eviction follow write
// recency, which keeps hot-but-immutable entries evictable once they
// stop being refreshed. Set StoreConfig.TouchOnRead to true for
// read-recency instead; both policies are tested.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - smartcache_lookups_total{outcome} - Lookups by outcome (hit, miss, stale, deduped, bypass)
//   - smartcache_fetch_errors_total{path} - Fetch failures (direct, refresh)
//   - smartcache_evictions_total - LRU evictions
//   - smartcache_entries - Resident entry count
//   - smartcache_size_bytes - Estimated resident size
//   - smartcache_invalidations_total{entity} - Invalidations by entity type
//
// Cumulative counters are also available in-process via Stats() for the
// gateway's stats endpoint.
package cache
