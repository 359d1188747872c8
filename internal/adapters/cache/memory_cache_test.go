package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMemoryCacheSetAndGet(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()

	ctx := context.Background()
	c.Set(ctx, "http://example.com", "URL is safe", time.Hour)

	verdict, ok := c.Get(ctx, "http://example.com")
	require.True(t, ok)
	assert.Equal(t, "URL is safe", verdict)

	_, ok = c.Get(ctx, "http://unknown.example")
	assert.False(t, ok)
}

func TestMemoryCacheExpiresEntries(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()

	ctx := context.Background()
	c.Set(ctx, "http://example.com", "URL is safe", time.Millisecond)

	time.Sleep(10 * time.Millisecond)
	_, ok := c.Get(ctx, "http://example.com")
	assert.False(t, ok)
}

func TestMemoryCacheCleanupRemovesExpired(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()

	ctx := context.Background()
	c.Set(ctx, "http://stale.example", "URL is safe", time.Millisecond)
	c.Set(ctx, "http://fresh.example", "URL is safe", time.Hour)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, c.Cleanup(ctx))

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.NotContains(t, c.entries, "http://stale.example")
	assert.Contains(t, c.entries, "http://fresh.example")
}

func TestMemoryCacheStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewMemoryCache(zap.NewNop(), time.Millisecond)
	c.Stop()
	c.Stop()
}

func TestMemoryCacheOverwriteUpdatesVerdict(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()

	ctx := context.Background()
	c.Set(ctx, "http://example.com", "URL is safe", time.Hour)
	c.Set(ctx, "http://example.com", "URL is malicious", time.Hour)

	verdict, ok := c.Get(ctx, "http://example.com")
	require.True(t, ok)
	assert.Equal(t, "URL is malicious", verdict)
}
