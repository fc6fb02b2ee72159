// Package keys is the registry of cache key builders. Every cached
// resource gets its key from here, and the invalidation rules purge by
// the matching prefixes, so readers and invalidators always agree on
// key shape.
//
// Keys follow a domain:subresource:params convention, with params
// canonically ordered so that two logically identical queries always
// produce the same key.
package keys

import (
	"fmt"
	"sort"
	"strings"
)

// Prefixes used by the invalidation rules. Each builder below produces
// keys under exactly one of these.
const (
	PrefixSettings      = "settings"
	PrefixProducts      = "products:"
	PrefixCategories    = "categories:"
	PrefixReviews       = "reviews:"
	PrefixSearch        = "search:"
	PrefixAnalytics     = "analytics:"
	PrefixNotifications = "notifications:"
	PrefixDiscounts     = "discounts:"
)

// Settings returns the key for the store-wide settings document.
func Settings() string {
	return PrefixSettings
}

// Product returns the key for a single product.
func Product(id string) string {
	return PrefixProducts + "id:" + id
}

// ProductList returns the key for a filtered/paginated product listing.
// Params are encoded canonically: two maps with the same pairs produce
// the same key regardless of insertion order.
func ProductList(params map[string]string) string {
	return PrefixProducts + "list:" + canonical(params)
}

// Category returns the key for a single category.
func Category(id string) string {
	return PrefixCategories + "id:" + id
}

// CategoryList returns the key for the full category listing.
func CategoryList() string {
	return PrefixCategories + "list"
}

// Reviews returns the key for one page of a product's reviews.
func Reviews(productID string, page int) string {
	return fmt.Sprintf("%s%s:page=%d", PrefixReviews, productID, page)
}

// SearchPublic returns the key for one page of public search results.
func SearchPublic(query string, page int) string {
	return fmt.Sprintf("%sq=%s:page=%d", PrefixSearch, query, page)
}

// Analytics returns the key for an admin analytics aggregate over the
// trailing day range.
func Analytics(days int) string {
	return fmt.Sprintf("%sdays=%d", PrefixAnalytics, days)
}

// Notifications returns the key for one page of a user's notifications.
func Notifications(userID string, page int) string {
	return fmt.Sprintf("%s%s:page=%d", PrefixNotifications, userID, page)
}

// DiscountList returns the key for the active discount listing.
func DiscountList() string {
	return PrefixDiscounts + "list"
}

// canonical encodes params as k=v pairs joined by ":", sorted by key
// for determinism. Empty maps encode as "all".
func canonical(params map[string]string) string {
	if len(params) == 0 {
		return "all"
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", name, params[name]))
	}
	return strings.Join(parts, ":")
}
