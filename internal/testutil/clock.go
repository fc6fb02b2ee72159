// Package testutil provides test helpers shared across packages:
// a manual clock for TTL tests and a counting fetcher for
// single-flight tests.
package testutil

import (
	"sync"
	"time"
)

// Clock is a manually advanced clock. Inject Clock.Now into a store to
// make TTL expiry deterministic in tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a Clock starting at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current manual time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
