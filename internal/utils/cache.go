package utils

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem[V any] struct {
	data      V
	expiresAt time.Time
}

// Cache is a size-bounded LRU whose entries also expire after a TTL.
type Cache[K comparable, V any] struct {
	lru *lru.Cache[K, cacheItem[V]]
	ttl time.Duration
	now func() time.Time
	mu  sync.Mutex
}

// NewCache panics only when size is not positive.
func NewCache[K comparable, V any](size int, ttl time.Duration) *Cache[K, V] {
	l, err := lru.New[K, cacheItem[V]](size)
	if err != nil {
		panic(err)
	}
	return &Cache[K, V]{lru: l, ttl: ttl, now: time.Now}
}

// WithClock swaps the time source; tests use it to expire entries.
func (c *Cache[K, V]) WithClock(now func() time.Time) *Cache[K, V] {
	c.now = now
	return c
}

func (c *Cache[K, V]) Set(key K, data V) {
	c.lru.Add(key, cacheItem[V]{data: data, expiresAt: c.now().Add(c.ttl)})
}

// Get returns the cached value unless it is missing or expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V
	val, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().After(val.expiresAt) {
		c.lru.Remove(key)
		return zero, false
	}
	return val.data, true
}

func (c *Cache[K, V]) Delete(key K) {
	c.lru.Remove(key)
}

func (c *Cache[K, V]) Purge() {
	c.lru.Purge()
}

// Update runs fn on the current value under a lock and stores the result,
// keeping the original expiry when the entry is still live.
func (c *Cache[K, V]) Update(key K, fn func(cur V, ok bool) V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	cur, ok := c.lru.Get(key)
	if ok && now.After(cur.expiresAt) {
		ok = false
	}
	next := fn(cur.data, ok)
	expires := now.Add(c.ttl)
	if ok {
		expires = cur.expiresAt
	}
	c.lru.Add(key, cacheItem[V]{data: next, expiresAt: expires})
	return next
}
