package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGet_NotFound(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemory[CacheTestDummy](time.Minute, 100)
	require.NoError(t, err)

	value, found, err := cache.Get(ctx, "nonexistent")

	assert.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, CacheTestDummy{}, value)
}

func TestMemorySetAndGet_Success(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemory[CacheTestDummy](time.Minute, 100)
	require.NoError(t, err)

	expected := CacheTestDummy{Data: "testdata"}

	err = cache.Set(ctx, "test-key", expected)
	require.NoError(t, err)

	value, found, err := cache.Get(ctx, "test-key")

	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, expected, value)
}

func TestMemorySet_LastWriterWins(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemory[CacheTestDummy](time.Minute, 100)
	require.NoError(t, err)

	err = cache.Set(ctx, "test-key", CacheTestDummy{Data: "first"})
	require.NoError(t, err)

	err = cache.Set(ctx, "test-key", CacheTestDummy{Data: "second"})
	require.NoError(t, err)

	value, found, err := cache.Get(ctx, "test-key")

	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, CacheTestDummy{Data: "second"}, value)
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	// Use very short TTL for testing
	cache, err := NewMemory[CacheTestDummy](100*time.Millisecond, 100)
	require.NoError(t, err)

	dummy := CacheTestDummy{Data: "testdata"}

	err = cache.Set(ctx, "test-key", dummy)
	require.NoError(t, err)

	// Verify the entry is present immediately
	_, found, err := cache.Get(ctx, "test-key")
	assert.NoError(t, err)
	assert.True(t, found)

	// Wait for TTL to expire
	time.Sleep(150 * time.Millisecond)

	// Verify the entry is no longer present
	_, found, err = cache.Get(ctx, "test-key")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryTTLRestartsOnWrite(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemory[CacheTestDummy](100*time.Millisecond, 100)
	require.NoError(t, err)

	err = cache.Set(ctx, "test-key", CacheTestDummy{Data: "first"})
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	// Overwriting restarts the freshness window
	err = cache.Set(ctx, "test-key", CacheTestDummy{Data: "second"})
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	value, found, err := cache.Get(ctx, "test-key")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, CacheTestDummy{Data: "second"}, value)
}

func TestMemorySize(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemory[CacheTestDummy](time.Minute, 100)
	require.NoError(t, err)

	size, err := cache.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)

	require.NoError(t, cache.Set(ctx, "one", CacheTestDummy{Data: "one"}))
	require.NoError(t, cache.Set(ctx, "two", CacheTestDummy{Data: "two"}))

	size, err = cache.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	assert.NoError(t, cache.Close())
}

// CacheTestDummy is a simple struct used for testing the generic memory
// cache without depending on the payload types of callers.
type CacheTestDummy struct {
	Data string
}
