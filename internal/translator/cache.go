package translator

import (
	"strings"
	"sync"
)

// Cache is a bounded response cache owned by a single provider adapter.
// Keys carry only a fixed-length prefix of the source text so key size stays
// bounded for long messages.
//
// Eviction is deliberately approximate: when the cache is full, the oldest
// half by insertion order is dropped and the newest half kept. This matches
// the long-standing behavior of the bot; it is a capacity bound, not an LRU.
type Cache struct {
	mu        sync.Mutex
	capacity  int
	keyPrefix int
	entries   map[string]string
	order     []string
}

// NewCache builds a cache holding at most capacity entries, keying on the
// first keyPrefix runes of the source text.
func NewCache(capacity, keyPrefix int) *Cache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	if keyPrefix <= 0 {
		keyPrefix = defaultCacheKeyPrefix
	}
	return &Cache{
		capacity:  capacity,
		keyPrefix: keyPrefix,
		entries:   make(map[string]string, capacity),
		order:     make([]string, 0, capacity),
	}
}

// Key builds the cache key for a translation of text into target from
// source. The parts are joined with a separator that cannot appear in a
// language code.
func (c *Cache) Key(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	truncated := parts[0]
	if runes := []rune(truncated); len(runes) > c.keyPrefix {
		truncated = string(runes[:c.keyPrefix])
	}
	return truncated + "\x1f" + strings.Join(parts[1:], "\x1f")
}

// Get returns the cached value for key.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok
}

// Put stores a value, evicting the oldest half of the cache first when the
// capacity is reached. Re-storing an existing key updates it in place.
func (c *Cache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = value
		return
	}

	if len(c.order) >= c.capacity {
		c.evictOldestHalfLocked()
	}

	c.entries[key] = value
	c.order = append(c.order, key)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictOldestHalfLocked() {
	keep := len(c.order) / 2
	cut := len(c.order) - keep
	for _, key := range c.order[:cut] {
		delete(c.entries, key)
	}
	remaining := make([]string, keep, c.capacity)
	copy(remaining, c.order[cut:])
	c.order = remaining
}
