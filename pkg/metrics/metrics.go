// Package metrics provides the centralized Prometheus registry
// reference for the cache engine. Metrics are defined in their
// respective packages via promauto to keep them next to the code that
// drives them; this package documents the full inventory.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registerer. All metrics are
// registered automatically via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - smartcache_lookups_total{outcome} (Counter): Lookups by outcome
//     (hit, miss, stale, deduped, bypass)
//   - smartcache_fetch_errors_total{path} (Counter): Fetch failures by
//     path (direct, refresh)
//   - smartcache_evictions_total (Counter): Entries evicted by LRU overflow
//   - smartcache_entries (Gauge): Resident entry count
//   - smartcache_size_bytes (Gauge): Estimated resident size
//   - smartcache_invalidations_total{entity} (Counter): Invalidations by
//     entity type
//
// Example Prometheus Queries:
//
//   # Cache hit rate (stale serves count as hits)
//   sum(rate(smartcache_lookups_total{outcome=~"hit|stale"}[5m])) /
//   sum(rate(smartcache_lookups_total[5m]))
//
//   # Fetch failure rate
//   rate(smartcache_fetch_errors_total[5m])
//
//   # Eviction pressure
//   rate(smartcache_evictions_total[5m])
//
//   # Invalidation volume by entity
//   sum by (entity) (rate(smartcache_invalidations_total[5m]))
