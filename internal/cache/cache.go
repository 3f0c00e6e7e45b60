package cache

import (
	"context"
	"time"
)

// ForEver is a cache duration to store values indefinitely
const ForEver = 0

// Cache interface propose a methods to use a cache
type Cache interface {
	// Set sets a value in the cache for a given key. The duration param tells
	// how long the entry may live in the cache before being evicted.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Get searches for an entry in the cache. value must be a reference; the
	// cached value, if found, is stored there.
	Get(ctx context.Context, key string, value any) bool
	// Exists returns true if the key exists in the cache
	Exists(ctx context.Context, key string) bool
	// Delete removes an entry from the cache
	Delete(ctx context.Context, key string) error
}
