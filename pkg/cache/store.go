package cache

import (
	"container/list"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

var (
	// ErrNilValue indicates a nil value was passed to Set. Nil must never
	// be cached: a later lookup could not tell it apart from a miss.
	ErrNilValue = errors.New("nil value cannot be cached")

	// ErrUnencodableValue indicates the value could not be JSON-encoded
	// for size estimation. This is a caller bug and fails loudly.
	ErrUnencodableValue = errors.New("value cannot be encoded for size estimation")
)

// StoreConfig holds the bounds and policies of a Store.
type StoreConfig struct {
	// MaxItems is the maximum number of resident entries. Zero or
	// negative values fall back to DefaultMaxItems.
	MaxItems int

	// MaxSizeBytes is the ceiling on cumulative ApproxSize. Zero or
	// negative values fall back to DefaultMaxSizeBytes.
	MaxSizeBytes int

	// TouchOnRead controls whether Get bumps an entry's LRU recency.
	// The default is false: recency is updated by Set only, so eviction
	// order follows write recency. Enabling it makes read-heavy keys
	// survive eviction longer at the cost of lock churn on every read.
	TouchOnRead bool
}

// Default store bounds.
const (
	DefaultMaxItems     = 1000
	DefaultMaxSizeBytes = 64 << 20 // 64 MB
)

// DefaultStoreConfig returns the default store bounds.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		MaxItems:     DefaultMaxItems,
		MaxSizeBytes: DefaultMaxSizeBytes,
		TouchOnRead:  false,
	}
}

// Store is a bounded in-memory key/value store with per-entry TTL and
// LRU eviction. At most MaxItems entries and MaxSizeBytes cumulative
// estimated bytes are resident; inserting beyond either bound evicts
// least-recently-used entries until both hold again.
//
// A stale entry (past its expiry) is not removed eagerly: Get still
// returns it, flagged stale, until it is overwritten, deleted, or
// evicted. Whether that is acceptable is the caller's decision (see
// the stale-while-revalidate path in Cache).
//
// All methods are safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	cfg       StoreConfig
	entries   map[string]*list.Element
	order     *list.List // front = most recently used
	sizeBytes int
	evictions uint64

	// now is the clock; replaced in tests.
	now func() time.Time
}

// NewStore creates a Store with the given bounds.
func NewStore(cfg StoreConfig) *Store {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	if cfg.MaxSizeBytes <= 0 {
		cfg.MaxSizeBytes = DefaultMaxSizeBytes
	}
	return &Store{
		cfg:     cfg,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// Get returns the value stored under key.
// found reports whether the key is resident; stale reports whether the
// entry has passed its expiry. A stale entry is still returned: callers
// opting into stale-while-revalidate serve it while refreshing.
func (s *Store) Get(key string) (value any, found bool, stale bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[key]
	if !ok {
		return nil, false, false
	}

	entry := elem.Value.(*Entry)
	if s.cfg.TouchOnRead {
		s.order.MoveToFront(elem)
	}

	return entry.Value, true, entry.Stale(s.now())
}

// Set inserts or replaces the entry under key with the given TTL.
// A ttl <= 0 stores an already-expired entry: the write still happens so
// that a fetch that just completed is visible to concurrent callers, but
// the next read sees it stale.
//
// If the insert breaches MaxItems or MaxSizeBytes, least-recently-used
// entries are evicted until both bounds hold. The entry just inserted is
// never evicted, even if its size alone exceeds the ceiling; the bound
// is breached until the next insert rather than the value going uncached.
func (s *Store) Set(key string, value any, ttl time.Duration) error {
	if value == nil {
		return ErrNilValue
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnencodableValue, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry := &Entry{
		Key:        key,
		Value:      value,
		ApproxSize: len(data),
		InsertedAt: now,
		ExpiresAt:  now.Add(ttl),
	}

	if elem, ok := s.entries[key]; ok {
		old := elem.Value.(*Entry)
		s.sizeBytes -= old.ApproxSize
		elem.Value = entry
		s.order.MoveToFront(elem)
	} else {
		s.entries[key] = s.order.PushFront(entry)
	}
	s.sizeBytes += entry.ApproxSize

	s.evictOverflowLocked(key)
	entriesGauge.Set(float64(len(s.entries)))
	sizeBytesGauge.Set(float64(s.sizeBytes))
	return nil
}

// evictOverflowLocked removes LRU entries until the store is within
// bounds, never removing the entry under protectedKey.
func (s *Store) evictOverflowLocked(protectedKey string) {
	for len(s.entries) > s.cfg.MaxItems || s.sizeBytes > s.cfg.MaxSizeBytes {
		elem := s.order.Back()
		if elem == nil {
			return
		}
		victim := elem.Value.(*Entry)
		if victim.Key == protectedKey {
			// Only the just-inserted entry remains; accept the breach.
			return
		}
		s.removeLocked(victim.Key, elem)
		s.evictions++
		evictionsTotal.Inc()
	}
}

// Delete removes the entry under key. Returns false if absent.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[key]
	if !ok {
		return false
	}
	s.removeLocked(key, elem)
	return true
}

// DeleteByPrefix removes every entry whose key starts with prefix and
// returns the number removed. This is a linear scan over resident keys;
// MaxItems bounds the cost.
func (s *Store) DeleteByPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, elem := range s.entries {
		if strings.HasPrefix(key, prefix) {
			s.removeLocked(key, elem)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*list.Element)
	s.order.Init()
	s.sizeBytes = 0
	entriesGauge.Set(0)
	sizeBytesGauge.Set(0)
}

func (s *Store) removeLocked(key string, elem *list.Element) {
	entry := elem.Value.(*Entry)
	s.order.Remove(elem)
	delete(s.entries, key)
	s.sizeBytes -= entry.ApproxSize
	entriesGauge.Set(float64(len(s.entries)))
	sizeBytesGauge.Set(float64(s.sizeBytes))
}

// Len returns the number of resident entries, stale ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// SizeBytes returns the cumulative estimated size of resident entries.
func (s *Store) SizeBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizeBytes
}

// Evictions returns the number of entries evicted over the store's lifetime.
func (s *Store) Evictions() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictions
}

// SetClock replaces the store's clock. For tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
