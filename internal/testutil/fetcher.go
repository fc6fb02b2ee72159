package testutil

import (
	"context"
	"sync/atomic"
)

// Fetcher is a fetch function that counts invocations and returns a
// fixed value or error. Use it to assert single-flight behavior: N
// concurrent callers, Calls() == 1.
type Fetcher struct {
	calls atomic.Int64

	// Value is returned on success.
	Value any

	// Err, when non-nil, is returned instead of Value.
	Err error

	// Block, when non-nil, is closed by the test to release pending
	// fetches. Lets a test pile up concurrent callers deterministically.
	Block chan struct{}
}

// Fetch is the fetch function to hand to the cache.
func (f *Fetcher) Fetch(ctx context.Context) (any, error) {
	f.calls.Add(1)
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Value, nil
}

// Calls returns how many times Fetch ran.
func (f *Fetcher) Calls() int64 {
	return f.calls.Load()
}
