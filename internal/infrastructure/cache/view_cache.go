// Package cache holds the passive order view caches. Entries are never
// patched in place: every order mutation deletes the order entry and all
// cached list pages, and the next read goes back to the shop backend.
package cache

import (
	"context"
	"strings"
)

const (
	orderKeyPrefix = "shopadmin:order:"
	listKeyPrefix  = "shopadmin:orders:"
)

// OrderViewCache stores serialized order views
type OrderViewCache interface {
	// Get returns the cached bytes for key, if present
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key with the cache TTL
	Set(ctx context.Context, key string, value []byte) error
	// InvalidateOrder drops the order entry and every cached list page
	InvalidateOrder(ctx context.Context, orderID string) error
}

// OrderKey is the cache key of a single order view
func OrderKey(orderID string) string {
	return orderKeyPrefix + orderID
}

// ListKey is the cache key of one list page; query must be canonical
// (e.g. url.Values.Encode output)
func ListKey(query string) string {
	return listKeyPrefix + query
}

func isListKey(key string) bool {
	return strings.HasPrefix(key, listKeyPrefix)
}
