package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type memoryEntry struct {
	verdict   string
	lastSeen  time.Time
	expiresAt time.Time
}

// MemoryCache is an in-memory implementation of the core.VerdictCache
// interface. Entries expire after their TTL; a background task sweeps
// expired entries at the configured frequency.
type MemoryCache struct {
	entries     map[string]memoryEntry
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryCache creates a new in-memory verdict cache
func NewMemoryCache(logger *zap.Logger, cleanupFreq time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]memoryEntry),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go cache.startCleanupTask()

	return cache
}

// Get retrieves a cached verdict for a URL
func (c *MemoryCache) Get(_ context.Context, url string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[url]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.verdict, true
}

// Set stores a verdict for a URL
func (c *MemoryCache) Set(_ context.Context, url string, verdict string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.entries[url] = memoryEntry{
		verdict:   verdict,
		lastSeen:  now,
		expiresAt: now.Add(ttl),
	}
}

// Cleanup removes expired entries
func (c *MemoryCache) Cleanup(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0
	for url, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, url)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired verdict entries", zap.Int("expired_count", expiredCount))
	return nil
}

// startCleanupTask runs the periodic cleanup until Stop is called
func (c *MemoryCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up verdict cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
