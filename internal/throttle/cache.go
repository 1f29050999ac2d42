// Package throttle holds the response cache and the repeat-query guard.
package throttle

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize is the number of canonical queries remembered.
const DefaultCacheSize = 100

// Cache maps a canonical query to the last response given for it.
// It is safe for concurrent use.
type Cache struct {
	lru *lru.Cache
}

// NewCache returns a cache holding at most size entries. A size below one
// uses DefaultCacheSize.
func NewCache(size int) (*Cache, error) {
	if size < 1 {
		size = DefaultCacheSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Cache{lru: c}, nil
}

// Get returns the cached response and marks the key most recently used.
func (c *Cache) Get(key string) (string, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Put stores a response, evicting the least recently used key when full.
// Empty keys are ignored.
func (c *Cache) Put(key, response string) {
	if key == "" {
		return
	}
	c.lru.Add(key, response)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return c.lru.Len() }

// Purge empties the cache.
func (c *Cache) Purge() { c.lru.Purge() }
