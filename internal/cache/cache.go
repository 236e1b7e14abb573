// Package cache is a small in-process TTL cache for public site content.
package cache

import (
	"strings"
	"sync"
	"time"
)

const defaultMaxEntries = 4096

type Cache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	items      map[string]item
	now        func() time.Time
}

type item struct {
	val       any
	expiresAt time.Time
}

// New returns a cache whose entries live for ttl (5s when ttl <= 0).
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl:        ttl,
		maxEntries: defaultMaxEntries,
		items:      make(map[string]item),
		now:        time.Now,
	}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(it.expiresAt) {
		delete(c.items, key)
		return nil, false
	}
	return it.val, true
}

func (c *Cache) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.items[key] = item{val: val, expiresAt: now.Add(c.ttl)}
}

// evictLocked drops expired entries, or the one closest to expiry when
// nothing has expired yet.
func (c *Cache) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for k, it := range c.items {
		if !now.Before(it.expiresAt) {
			delete(c.items, k)
			continue
		}
		if oldestKey == "" || it.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt = k, it.expiresAt
		}
	}
	if len(c.items) >= c.maxEntries && oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// DeletePrefix drops every key starting with prefix and returns how many went.
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
