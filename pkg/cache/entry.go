package cache

import (
	"time"
)

// Entry represents a cached value together with its bookkeeping metadata.
// The value is opaque to the store; callers decide what goes in.
type Entry struct {
	// Key is the cache key this entry is stored under.
	Key string

	// Value is the cached payload. Never nil (Set rejects nil values).
	Value any

	// ApproxSize is the estimated byte size of the value, computed from
	// its JSON encoding. It is an estimate used against the store's size
	// ceiling, not an exact accounting.
	ApproxSize int

	// InsertedAt is when the entry was written.
	InsertedAt time.Time

	// ExpiresAt is when the entry becomes stale. A stale entry remains
	// retrievable until it is overwritten, deleted, or evicted.
	ExpiresAt time.Time
}

// Stale reports whether the entry has passed its expiry at the given time.
func (e *Entry) Stale(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Remaining returns the time until expiry at the given time.
// Returns 0 if the entry is already stale.
func (e *Entry) Remaining(now time.Time) time.Duration {
	ttl := e.ExpiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
