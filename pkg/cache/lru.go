package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time // zero means no expiry
}

func (e *entry[K, V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// LRU is a size-bounded cache with optional per-entry expiry. When full, the
// least recently used entry is evicted. Safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List
	now      func() time.Time
}

// NewLRU panics if capacity is not positive.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity <= 0 {
		panic("cache: LRU capacity must be positive")
	}
	return &LRU[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (c *LRU[K, V]) WithClock(now func() time.Time) *LRU[K, V] {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

// Get returns a live entry and marks it recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.lookup(key); ok {
		c.order.MoveToFront(e)
		return e.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Put stores value for ttl. A non-positive ttl never expires.
func (c *LRU[K, V]) Put(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, value, ttl)
}

// PutIfAbsent stores value only when key has no live entry and reports
// whether it did. The check and the write happen under one lock.
func (c *LRU[K, V]) PutIfAbsent(key K, value V, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lookup(key); ok {
		return false
	}
	c.put(key, value, ttl)
	return true
}

func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false
	}
	c.remove(e)
	return true
}

// Len counts stored entries, including expired ones not yet reclaimed.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// PurgeExpired drops every expired entry and returns how many were removed.
func (c *LRU[K, V]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for e := c.order.Back(); e != nil; {
		prev := e.Prev()
		if e.Value.(*entry[K, V]).expired(now) {
			c.remove(e)
			n++
		}
		e = prev
	}
	return n
}

func (c *LRU[K, V]) lookup(key K) (*list.Element, bool) {
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if e.Value.(*entry[K, V]).expired(c.now()) {
		c.remove(e)
		return nil, false
	}
	return e, true
}

func (c *LRU[K, V]) put(key K, value V, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	if e, ok := c.items[key]; ok {
		en := e.Value.(*entry[K, V])
		en.value = value
		en.expiresAt = exp
		c.order.MoveToFront(e)
		return
	}
	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value, expiresAt: exp})
	if c.order.Len() > c.capacity {
		c.remove(c.order.Back())
	}
}

func (c *LRU[K, V]) remove(e *list.Element) {
	c.order.Remove(e)
	delete(c.items, e.Value.(*entry[K, V]).key)
}
