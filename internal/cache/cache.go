package cache

import (
	"sync"
	"time"
)

const (
	// DefaultMaxSize is the default maximum number of items in cache
	DefaultMaxSize = 1000
	// DefaultExpiry is the default expiration duration for cache items
	DefaultExpiry = 5 * time.Minute
	// DefaultCleanupInterval is how often to run cleanup of expired items
	DefaultCleanupInterval = 1 * time.Minute
)

// Item represents a cached item with expiration time
type Item struct {
	Value     interface{}
	ExpiresAt time.Time
}

// IsExpired checks if the item has expired
func (i *Item) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// Cache is an in-memory cache with a size cap and per-item expiration. The
// bot uses it for voice transcriptions (keyed by Telegram file ID) and for
// chat stats snapshots.
type Cache struct {
	mu              sync.RWMutex
	items           map[string]*Item
	maxSize         int
	defaultExpiry   time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	cleanupStarted  bool
}

// New creates a new cache with default settings
func New() *Cache {
	return NewWithConfig(DefaultMaxSize, DefaultExpiry, DefaultCleanupInterval)
}

// NewWithConfig creates a new cache with custom configuration
func NewWithConfig(maxSize int, defaultExpiry, cleanupInterval time.Duration) *Cache {
	c := &Cache{
		items:           make(map[string]*Item),
		maxSize:         maxSize,
		defaultExpiry:   defaultExpiry,
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	c.startCleanup()

	return c
}

// Set stores an item in the cache with default expiry
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithExpiry(key, value, c.defaultExpiry)
}

// SetWithExpiry stores an item in the cache with custom expiry
func (c *Cache) SetWithExpiry(key string, value interface{}, expiry time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.maxSize {
		c.evictOne()
	}

	c.items[key] = &Item{
		Value:     value,
		ExpiresAt: time.Now().Add(expiry),
	}
}

// Get retrieves an item from the cache
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if item.IsExpired() {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}

	return item.Value, true
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*Item)
}

// Size returns the current number of items in the cache
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats holds cache statistics
type Stats struct {
	Size         int
	MaxSize      int
	ExpiredItems int
}

// GetStats returns current cache statistics
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expiredCount := 0
	now := time.Now()

	for _, item := range c.items {
		if now.After(item.ExpiresAt) {
			expiredCount++
		}
	}

	return Stats{
		Size:         len(c.items),
		MaxSize:      c.maxSize,
		ExpiredItems: expiredCount,
	}
}

// Close stops the cleanup goroutine
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cleanupStarted {
		close(c.stopCleanup)
		c.cleanupStarted = false
	}
}

func (c *Cache) startCleanup() {
	if c.cleanupStarted {
		return
	}

	c.cleanupStarted = true

	go func() {
		ticker := time.NewTicker(c.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.cleanupExpired()
			case <-c.stopCleanup:
				return
			}
		}
	}()
}

func (c *Cache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	for key, item := range c.items {
		if now.After(item.ExpiresAt) {
			delete(c.items, key)
		}
	}
}

// evictOne removes a single arbitrary item to make room. Expired items are
// preferred over live ones.
func (c *Cache) evictOne() {
	for key, item := range c.items {
		if item.IsExpired() {
			delete(c.items, key)
			return
		}
	}
	for key := range c.items {
		delete(c.items, key)
		return
	}
}
