// Package invalidate maps domain write events to the cache keys that
// must be purged, and tells live subscribers to refetch. It is the only
// place the "what changed -> what drops" policy lives: whenever a new
// key builder is added to pkg/keys, the rules table here must gain a
// matching entry, or reads of that resource go permanently stale after
// writes.
package invalidate

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wighaven/smartcache/pkg/broadcast"
	"github.com/wighaven/smartcache/pkg/keys"
)

// EntityType tags a domain resource category whose writes trigger
// invalidation. The set is closed: the rules table covers every
// constant, and unknown strings arriving at runtime degrade to a
// logged no-op instead of a crash.
type EntityType string

const (
	EntityProducts      EntityType = "products"
	EntityCategories    EntityType = "categories"
	EntityOrders        EntityType = "orders"
	EntityReviews       EntityType = "reviews"
	EntitySettings      EntityType = "settings"
	EntityDiscounts     EntityType = "discounts"
	EntityNotifications EntityType = "notifications"
)

// Rule lists what to purge when an entity type changes.
type Rule struct {
	// Keys are literal cache keys to delete.
	Keys []string

	// Prefixes are key prefixes to purge wholesale.
	Prefixes []string
}

// Rules maps entity types to purge rules.
type Rules map[EntityType]Rule

// DefaultRules returns the stock mapping. A write to an entity drops
// its own keys plus every derived view that embeds it: product writes
// also drop search results and analytics, category writes also drop
// product listings, and so on.
func DefaultRules() Rules {
	return Rules{
		EntityProducts: {
			Prefixes: []string{keys.PrefixProducts, keys.PrefixSearch, keys.PrefixAnalytics},
		},
		EntityCategories: {
			Prefixes: []string{keys.PrefixCategories, keys.PrefixProducts, keys.PrefixSearch},
		},
		EntityOrders: {
			Prefixes: []string{keys.PrefixAnalytics, keys.PrefixNotifications},
		},
		EntityReviews: {
			// Review writes change product rating aggregates too.
			Prefixes: []string{keys.PrefixReviews, keys.PrefixProducts},
		},
		EntitySettings: {
			Keys: []string{keys.Settings()},
		},
		EntityDiscounts: {
			Prefixes: []string{keys.PrefixDiscounts, keys.PrefixProducts},
		},
		EntityNotifications: {
			Prefixes: []string{keys.PrefixNotifications},
		},
	}
}

// Purger is the slice of the cache the coordinator needs. *cache.Cache
// satisfies it.
type Purger interface {
	Delete(key string) bool
	DeleteByPrefix(prefix string) int
	RecordInvalidation(entity string)
}

// Metadata travels with the broadcast event; typically the entity id
// and the action ("updated", "deleted").
type Metadata map[string]any

// Coordinator purges cache keys on domain writes and notifies
// subscribers through the injected broadcast seam. It holds no
// transport of its own.
type Coordinator struct {
	cache  Purger
	rules  Rules
	notify broadcast.NotifyFunc
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a Coordinator. A nil rules map falls back to
// DefaultRules; a nil notify falls back to a no-op.
func New(cache Purger, rules Rules, notify broadcast.NotifyFunc) *Coordinator {
	if rules == nil {
		rules = DefaultRules()
	}
	if notify == nil {
		notify = broadcast.Nop()
	}
	return &Coordinator{
		cache:  cache,
		rules:  rules,
		notify: notify,
		logger: log.With().Str("component", "invalidate").Logger(),
		now:    time.Now,
	}
}

// Invalidate purges every key and prefix mapped for entity, then emits
// a broadcast event so connected clients refetch. Purging keys that are
// already absent is a no-op, so repeated invalidation is safe. An
// unmapped entity type is logged and ignored: stale cache beats a
// crash, and the TTL recovers eventually.
func (c *Coordinator) Invalidate(ctx context.Context, entity EntityType, meta Metadata) {
	rule, ok := c.rules[entity]
	if !ok {
		c.logger.Warn().Str("entity", string(entity)).Msg("No invalidation rule for entity type, skipping")
		return
	}

	removed := 0
	for _, key := range rule.Keys {
		if c.cache.Delete(key) {
			removed++
		}
	}
	for _, prefix := range rule.Prefixes {
		removed += c.cache.DeleteByPrefix(prefix)
	}

	c.cache.RecordInvalidation(string(entity))
	c.logger.Debug().
		Str("entity", string(entity)).
		Int("removed", removed).
		Msg("Cache invalidated")

	c.notify(ctx, broadcast.Event{
		Type:     string(entity),
		Metadata: meta,
		At:       c.now(),
	})
}

// InvalidateIf purges and broadcasts only when pred says the write is
// visible to readers. Callers own the policy of which fields are
// public: a write touching only internal fields (an admin note, a cost
// price) passes a false predicate and skips the purge and the
// broadcast entirely.
func (c *Coordinator) InvalidateIf(ctx context.Context, entity EntityType, meta Metadata, pred func(Metadata) bool) {
	if pred != nil && !pred(meta) {
		c.logger.Debug().Str("entity", string(entity)).Msg("Write not publicly visible, skipping invalidation")
		return
	}
	c.Invalidate(ctx, entity, meta)
}
