package cache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// flightTracker deduplicates concurrent fetches per key. It wraps
// singleflight.Group, which guarantees at most one fetch in flight per
// key and removes the record when the fetch settles, success or error,
// so a later call retries instead of replaying a cached failure.
//
// On top of that it gates stale-while-revalidate refreshes: a stale
// read spawns a background refresh only when no refresh for that key
// is already running, so repeated stale reads don't pile up goroutines
// behind one slow upstream.
type flightTracker struct {
	group singleflight.Group

	mu         sync.Mutex
	refreshing map[string]struct{}
}

func newFlightTracker() *flightTracker {
	return &flightTracker{
		refreshing: make(map[string]struct{}),
	}
}

// do runs fn under the single-flight guarantee for key. shared reports
// whether the result was produced by another caller's fetch.
func (f *flightTracker) do(key string, fn func() (any, error)) (v any, err error, shared bool) {
	return f.group.Do(key, fn)
}

// tryBeginRefresh marks key as having a background refresh in flight.
// Returns false if one is already running.
func (f *flightTracker) tryBeginRefresh(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.refreshing[key]; ok {
		return false
	}
	f.refreshing[key] = struct{}{}
	return true
}

// endRefresh clears the refresh mark for key. Must be called exactly
// once for every successful tryBeginRefresh, regardless of outcome.
func (f *flightTracker) endRefresh(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.refreshing, key)
}
