// Package cache provides a small thread-safe TTL cache, used by
// collectors that would otherwise repeat an expensive syscall (statfs
// across many mounts) more often than their configured cadence needs.
package cache

import (
	"sync"
	"time"

	"github.com/ecmoce/sysops-agent/daemon/logger"
)

type entry struct {
	value      interface{}
	expiresAt  time.Time
	lastAccess time.Time
}

func (e *entry) expired() bool {
	return time.Now().After(e.expiresAt)
}

// Cache is a thread-safe cache with per-entry TTL and an LRU eviction
// policy once maxEntries is reached.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	defaultTTL time.Duration
	maxEntries int

	hits, misses int64
}

// New creates a cache with the given default TTL and entry cap.
func New(defaultTTL time.Duration, maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &Cache{
		entries:    make(map[string]*entry),
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
	}
}

// Get returns the cached value for key, or false if absent or expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || e.expired() {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	e.lastAccess = time.Now()
	c.hits++
	c.mu.Unlock()
	return e.value, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key with a custom TTL.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[key]; !exists {
			c.evictLRULocked()
		}
	}

	now := time.Now()
	c.entries[key] = &entry{value: value, expiresAt: now.Add(ttl), lastAccess: now}
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Stats returns hit/miss counters and the current entry count.
func (c *Cache) Stats() (hits, misses int64, entries int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.entries)
}

func (c *Cache) evictLRULocked() {
	var oldestKey string
	var oldestTime time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.lastAccess.Before(oldestTime) {
			oldestKey, oldestTime = key, e.lastAccess
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		logger.Component("cache").Debug().Str("key", oldestKey).Msg("evicted cache entry")
	}
}
