package cache

import (
	"sync/atomic"
)

// counters holds the cache's operational counters. All fields are
// atomics so that Snapshot never blocks cache operations.
type counters struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	deduped       atomic.Uint64
	staleHits     atomic.Uint64
	invalidations atomic.Uint64
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	// Hits counts fresh cache hits.
	Hits uint64 `json:"hits"`

	// Misses counts lookups that went to the fetch function.
	Misses uint64 `json:"misses"`

	// Deduped counts callers that joined another caller's in-flight fetch.
	Deduped uint64 `json:"deduped"`

	// StaleHits counts stale values served under stale-while-revalidate.
	StaleHits uint64 `json:"staleHits"`

	// Invalidations counts explicit invalidation calls against this cache.
	Invalidations uint64 `json:"invalidations"`

	// Evictions counts entries removed by LRU overflow.
	Evictions uint64 `json:"evictions"`

	// Entries is the current number of resident entries.
	Entries int `json:"entries"`

	// SizeBytes is the current estimated resident size.
	SizeBytes int `json:"size"`

	// HitRate is (Hits+StaleHits) / lookups served, 0 when idle.
	// Stale serves count as hits: the caller got a value without waiting
	// on the upstream.
	HitRate float64 `json:"hitRate"`
}

// Stats returns a snapshot of the cache's counters and residency.
func (c *Cache) Stats() Stats {
	s := Stats{
		Hits:          c.counters.hits.Load(),
		Misses:        c.counters.misses.Load(),
		Deduped:       c.counters.deduped.Load(),
		StaleHits:     c.counters.staleHits.Load(),
		Invalidations: c.counters.invalidations.Load(),
		Evictions:     c.store.Evictions(),
		Entries:       c.store.Len(),
		SizeBytes:     c.store.SizeBytes(),
	}
	served := s.Hits + s.StaleHits
	total := served + s.Misses + s.Deduped
	if total > 0 {
		s.HitRate = float64(served) / float64(total)
	}
	return s
}
