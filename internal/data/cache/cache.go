// Package cache stores serialized project lists with the time they were
// written.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss is returned when no entry exists for a key.
var ErrCacheMiss = errors.New("cache miss")

type entry struct {
	value []byte
	at    time.Time
}

// MemoryCache keeps entries for the lifetime of the process.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]entry)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, time.Time{}, ErrCacheMiss
	}
	return append([]byte(nil), e.value...), e.at, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, at time.Time) error {
	c.mu.Lock()
	c.entries[key] = entry{value: append([]byte(nil), value...), at: at}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}
