package cache

import (
	"container/list"
	"sync"
	"time"
)

// thread-safe LRU cache with optional TTL
type LRUCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	items    map[K]*list.Element
	lru      *list.List
}

// holds cached value and metadata
type cacheEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// creates new LRU cache with given capacity and TTL, ttl 0 disables expiry
func NewLRUCache[K comparable, V any](capacity int, ttl time.Duration) *LRUCache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUCache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[K]*list.Element),
		lru:      list.New(),
	}
}

// retrieves value from cache
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, found := c.items[key]
	if !found {
		var zero V
		return zero, false
	}

	entry := elem.Value.(*cacheEntry[K, V])
	if c.expired(entry) {
		c.removeElement(elem)
		var zero V
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return entry.value, true
}

// adds/updates value in cache
func (c *LRUCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value)
}

// ContainsOrAdd reports whether a live entry for key exists and inserts
// value when it does not, in one step.
func (c *LRUCache[K, V]) ContainsOrAdd(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, found := c.items[key]; found {
		if !c.expired(elem.Value.(*cacheEntry[K, V])) {
			c.lru.MoveToFront(elem)
			return true
		}
		c.removeElement(elem)
	}
	c.set(key, value)
	return false
}

func (c *LRUCache[K, V]) set(key K, value V) {
	if elem, found := c.items[key]; found {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry[K, V])
		entry.value = value
		if c.ttl > 0 {
			entry.expiresAt = c.now().Add(c.ttl)
		}
		return
	}

	entry := &cacheEntry[K, V]{
		key:   key,
		value: value,
	}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}
	c.items[key] = c.lru.PushFront(entry)

	// evict if > capacity
	if c.lru.Len() > c.capacity {
		c.removeOldest()
	}
}

// rm key from cache
func (c *LRUCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, found := c.items[key]; found {
		c.removeElement(elem)
	}
}

// returns number of items in cache, expired ones included until cleanup
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// removes all items from cache
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element)
	c.lru.Init()
}

// CleanupExpired removes all expired entries
func (c *LRUCache[K, V]) CleanupExpired() {
	if c.ttl == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*cacheEntry[K, V])) {
			c.removeElement(elem)
		}
		elem = prev
	}
}

func (c *LRUCache[K, V]) expired(entry *cacheEntry[K, V]) bool {
	return c.ttl > 0 && c.now().After(entry.expiresAt)
}

// remove least recently used item
func (c *LRUCache[K, V]) removeOldest() {
	if elem := c.lru.Back(); elem != nil {
		c.removeElement(elem)
	}
}

func (c *LRUCache[K, V]) removeElement(elem *list.Element) {
	c.lru.Remove(elem)
	delete(c.items, elem.Value.(*cacheEntry[K, V]).key)
}
