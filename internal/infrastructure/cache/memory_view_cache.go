package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryOrderViewCache keeps order views in process memory. It is used
// when Redis is disabled and in tests.
type MemoryOrderViewCache struct {
	store *gocache.Cache
}

// NewMemoryOrderViewCache creates an in-memory cache whose entries expire
// after ttl and are swept every cleanupInterval
func NewMemoryOrderViewCache(ttl, cleanupInterval time.Duration) *MemoryOrderViewCache {
	return &MemoryOrderViewCache{store: gocache.New(ttl, cleanupInterval)}
}

// Get implements OrderViewCache
func (c *MemoryOrderViewCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

// Set implements OrderViewCache
func (c *MemoryOrderViewCache) Set(_ context.Context, key string, value []byte) error {
	c.store.SetDefault(key, value)
	return nil
}

// InvalidateOrder implements OrderViewCache
func (c *MemoryOrderViewCache) InvalidateOrder(_ context.Context, orderID string) error {
	c.store.Delete(OrderKey(orderID))
	for key := range c.store.Items() {
		if strings.HasPrefix(key, listKeyPrefix) {
			c.store.Delete(key)
		}
	}
	return nil
}

// Len returns the number of unexpired entries
func (c *MemoryOrderViewCache) Len() int {
	return c.store.ItemCount()
}
