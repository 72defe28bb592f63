package qdrant

import (
	"sync"
	"time"
)

// namespaceCache memoizes collections known to exist so EnsureNamespace does
// not hit the server on every upsert. Entries expire after the TTL so an
// externally deleted collection is eventually re-checked.
type namespaceCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time
}

func newNamespaceCache(ttl time.Duration) *namespaceCache {
	return &namespaceCache{
		ttl:     ttl,
		entries: make(map[string]time.Time),
	}
}

func (c *namespaceCache) known(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	checkedAt, ok := c.entries[name]
	if !ok {
		return false
	}
	if time.Since(checkedAt) > c.ttl {
		delete(c.entries, name)
		return false
	}
	return true
}

func (c *namespaceCache) remember(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = time.Now()
}

func (c *namespaceCache) forget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}
