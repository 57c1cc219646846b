package secrets

import (
	"container/list"
	"sync"
	"time"
)

// CacheConfig configures the resolver cache.
type CacheConfig struct {
	TTL     time.Duration // zero disables caching
	MaxSize int           // zero means unbounded
}

type cacheEntry struct {
	key       string
	value     string
	expiresAt time.Time
}

// Cache is a small TTL cache with least-recently-used eviction.
type Cache struct {
	config  CacheConfig
	order   *list.List
	entries map[string]*list.Element
	now     func() time.Time
	mu      sync.Mutex
}

// NewCache creates a cache.
func NewCache(config CacheConfig) *Cache {
	return &Cache{
		config:  config,
		order:   list.New(),
		entries: make(map[string]*list.Element),
		now:     time.Now,
	}
}

// Get returns a live entry and marks it recently used.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}
	entry := elem.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.entries, key)
		return "", false
	}
	c.order.MoveToFront(elem)
	return entry.value, true
}

// Set stores value, evicting the least recently used entry when full.
func (c *Cache) Set(key, value string) {
	if c.config.TTL <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.config.TTL)
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}

	if c.config.MaxSize > 0 && c.order.Len() >= c.config.MaxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, value: value, expiresAt: expiresAt})
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[string]*list.Element)
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}
