package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFlightTracker_SharesResult(t *testing.T) {
	tracker := newFlightTracker()

	const callers = 10
	block := make(chan struct{})
	var calls atomic.Int64

	var wg sync.WaitGroup
	results := make([]any, callers)
	shared := make([]bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, shared[i] = tracker.do("k", func() (any, error) {
				calls.Add(1)
				<-block
				return "v", nil
			})
		}(i)
	}

	// Let all callers pile up on the blocked flight, then release it.
	waitFor(t, func() bool { return calls.Load() == 1 })
	time.Sleep(50 * time.Millisecond)
	close(block)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	sharedCount := 0
	for i := 0; i < callers; i++ {
		if results[i] != "v" {
			t.Errorf("caller %d got %v, want v", i, results[i])
		}
		if shared[i] {
			sharedCount++
		}
	}
	if sharedCount == 0 {
		t.Error("at least one caller should have observed a shared result")
	}
}

func TestFlightTracker_ErrorSettlesAndRetries(t *testing.T) {
	tracker := newFlightTracker()

	wantErr := errors.New("boom")
	if _, err, _ := tracker.do("k", func() (any, error) {
		return nil, wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}

	// The failed flight settled and was removed; a later call runs anew.
	v, err, _ := tracker.do("k", func() (any, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if v != "ok" {
		t.Errorf("got %v, want ok", v)
	}
}

func TestFlightTracker_RefreshGate(t *testing.T) {
	tracker := newFlightTracker()

	if !tracker.tryBeginRefresh("k") {
		t.Fatal("first tryBeginRefresh should succeed")
	}
	if tracker.tryBeginRefresh("k") {
		t.Error("second tryBeginRefresh should fail while the first is active")
	}
	if !tracker.tryBeginRefresh("other") {
		t.Error("keys gate independently")
	}

	tracker.endRefresh("k")
	if !tracker.tryBeginRefresh("k") {
		t.Error("tryBeginRefresh should succeed after endRefresh")
	}
}
