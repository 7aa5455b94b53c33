// Package lazy provides a cache whose values are computed on first use.
package lazy

import "sync"

type entry[V any] struct {
	once  sync.Once
	value V
}

// Cache maps keys to values computed exactly once per key, even under
// concurrent access. The zero value is ready to use.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*entry[V]
}

// Get returns the value of key, calling compute the first time the key is seen.
// Callers racing on a new key block until the single compute returns.
func (c *Cache[K, V]) Get(key K, compute func() V) V {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.mu.Lock()
		if e, ok = c.entries[key]; !ok {
			if c.entries == nil {
				c.entries = make(map[K]*entry[V])
			}
			e = &entry[V]{}
			c.entries[key] = e
		}
		c.mu.Unlock()
	}

	e.once.Do(func() {
		e.value = compute()
	})
	return e.value
}

// Len returns the number of keys seen so far.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
