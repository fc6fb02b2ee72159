// Package broadcast carries cache invalidation events to live
// subscribers. The cache engine itself only ever sees the NotifyFunc
// seam; the transports here (WebSocket hub for admin dashboards, Redis
// pub/sub for storefront replicas) stay outside the cache module.
package broadcast

import (
	"context"
	"time"
)

// Event is a change notification emitted after a cache purge. Type is
// the entity-type tag of the write ("products", "settings", ...);
// Metadata carries whatever the writing service wants subscribers to
// see (entity id, action).
type Event struct {
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata,omitempty"`
	At       time.Time      `json:"at"`
}

// NotifyFunc pushes an event to subscribers. Implementations must be
// safe for concurrent use and must not block on slow subscribers; the
// invalidation path calls this inline after a purge.
type NotifyFunc func(ctx context.Context, event Event)

// Nop returns a NotifyFunc that discards events. Used when no
// real-time transport is configured.
func Nop() NotifyFunc {
	return func(context.Context, Event) {}
}

// Fanout composes several NotifyFuncs into one. Every transport sees
// every event; a no-op member costs nothing.
func Fanout(notifiers ...NotifyFunc) NotifyFunc {
	return func(ctx context.Context, event Event) {
		for _, notify := range notifiers {
			notify(ctx, event)
		}
	}
}
