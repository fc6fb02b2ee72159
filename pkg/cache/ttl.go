package cache

import (
	"time"
)

// Type tags a cached resource category. Callers pass a type instead of
// a raw TTL so that expiry policy stays centralized in one table.
type Type string

const (
	// TypeSettings covers store-wide settings documents.
	TypeSettings Type = "settings"

	// TypeProduct covers single product documents.
	TypeProduct Type = "product"

	// TypeProductList covers paginated/filtered product listings.
	TypeProductList Type = "product_list"

	// TypeCategory covers category documents and listings.
	TypeCategory Type = "category"

	// TypeReview covers per-product review pages.
	TypeReview Type = "review"

	// TypeSearch covers public search result pages.
	TypeSearch Type = "search"

	// TypeAnalytics covers admin analytics aggregates.
	TypeAnalytics Type = "analytics"

	// TypeNotification covers per-user notification pages.
	TypeNotification Type = "notification"

	// TypeDiscount covers discount and promotion listings.
	TypeDiscount Type = "discount"
)

// DefaultTTL is the fallback when a type has no table entry and the
// caller supplies no override.
const DefaultTTL = 5 * time.Minute

// TTLTable maps resource types to their expiry policy.
type TTLTable map[Type]time.Duration

// DefaultTTLTable returns the stock expiry policy. Settings change
// rarely and tolerate long staleness; listings and search churn fast.
func DefaultTTLTable() TTLTable {
	return TTLTable{
		TypeSettings:     10 * time.Minute,
		TypeProduct:      5 * time.Minute,
		TypeProductList:  2 * time.Minute,
		TypeCategory:     10 * time.Minute,
		TypeReview:       3 * time.Minute,
		TypeSearch:       1 * time.Minute,
		TypeAnalytics:    2 * time.Minute,
		TypeNotification: 30 * time.Second,
		TypeDiscount:     5 * time.Minute,
	}
}

// Resolve returns the TTL for a call: explicit override wins, then the
// type's table entry, then DefaultTTL.
func (t TTLTable) Resolve(override time.Duration, typ Type) time.Duration {
	if override != 0 {
		return override
	}
	if ttl, ok := t[typ]; ok {
		return ttl
	}
	return DefaultTTL
}
