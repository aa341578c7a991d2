package cache

import (
	"context"
)

// ResultCache defines the interface for lookup result storage.
// The generic type T represents the payload being cached.
type ResultCache[T any] interface {
	// Get retrieves a live entry from the cache. An entry past its TTL is
	// reported as absent.
	// Returns the payload, whether it was found, and any error.
	Get(ctx context.Context, key string) (T, bool, error)

	// Set stores an entry in the cache, unconditionally replacing any
	// previous value for the key. Last writer wins.
	Set(ctx context.Context, key string, value T) error

	// Size reports the number of entries currently held.
	Size(ctx context.Context) (int, error)

	// Close releases any resources held by the cache.
	Close() error
}
