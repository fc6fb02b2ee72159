package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lookupsTotal tracks lookups by outcome (hit, miss, stale, deduped, bypass).
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcache_lookups_total",
			Help: "Total cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	// fetchErrorsTotal tracks fetch function failures by path (direct, refresh).
	fetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcache_fetch_errors_total",
			Help: "Total fetch function failures by path",
		},
		[]string{"path"},
	)

	// evictionsTotal tracks entries removed by LRU overflow.
	evictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "smartcache_evictions_total",
			Help: "Total entries evicted due to item or size bounds",
		},
	)

	// entriesGauge tracks resident entry count.
	entriesGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "smartcache_entries",
			Help: "Current number of resident cache entries",
		},
	)

	// sizeBytesGauge tracks estimated resident size.
	sizeBytesGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "smartcache_size_bytes",
			Help: "Estimated size of resident cache entries in bytes",
		},
	)

	// invalidationsTotal tracks invalidation calls by entity type.
	invalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcache_invalidations_total",
			Help: "Total cache invalidations by entity type",
		},
		[]string{"entity"},
	)
)

// Lookup outcome label values.
const (
	outcomeHit     = "hit"
	outcomeMiss    = "miss"
	outcomeStale   = "stale"
	outcomeDeduped = "deduped"
	outcomeBypass  = "bypass"
)

// RecordInvalidation bumps the invalidation counters for an entity type.
// Called by the invalidation coordinator after a purge.
func (c *Cache) RecordInvalidation(entity string) {
	c.counters.invalidations.Add(1)
	invalidationsTotal.WithLabelValues(entity).Inc()
}
