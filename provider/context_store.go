package provider

import (
	"context"
	"time"
)

// ContextStore persists one value per key. Range cache entries are saved
// through it by MemoryStore, redis.EntryStore and rangecache.StorageStore.
type ContextStore[C any] interface {
	// Load returns (nil, nil) for a missing key.
	Load(ctx context.Context, key string) (*C, error)
	// Save replaces the value. A zero ttl keeps it until deleted.
	Save(ctx context.Context, key string, val *C, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
