package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// TTLCache is a bounded in-memory key/value store with per-entry expiry.
// Eviction order is FIFO-with-refresh-on-write: Set on an existing key
// refreshes its expiry and moves it to the back of the queue, while Get
// never reorders. Expired entries are treated as absent and purged lazily.
// Safe for concurrent use; entries are lost on process exit.
type TTLCache[K comparable, V any] struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[K]*list.Element
	order    *list.List // front = oldest inserted-or-refreshed
}

// NewTTLCache creates a cache holding at most capacity entries, each
// expiring ttl after its last write.
func NewTTLCache[K comparable, V any](ttl time.Duration, capacity int) *TTLCache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &TTLCache[K, V]{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[K]*list.Element),
		order:    list.New(),
	}
}

// Get returns the live value for key. An expired entry is removed and
// reported as absent; absence is not an error.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if !time.Now().Before(e.expiresAt) {
		c.remove(el)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key. Writing an existing key refreshes its value,
// expiry, and eviction position. Inserting a new key into a full cache
// evicts the single oldest entry first.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(c.ttl)

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToBack(el)
		return
	}

	if len(c.entries) >= c.capacity {
		if oldest := c.order.Front(); oldest != nil {
			c.remove(oldest)
		}
	}
	c.entries[key] = c.order.PushBack(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
}

// Len returns the number of stored entries, including any not yet purged
// expired ones.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *TTLCache[K, V]) remove(el *list.Element) {
	e := el.Value.(*entry[K, V])
	delete(c.entries, e.key)
	c.order.Remove(el)
}
