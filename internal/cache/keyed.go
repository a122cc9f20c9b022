package cache

import (
	"context"
	"sync"
	"sync/atomic"
)

// Loader builds a cache value for one web log.
type Loader[V any] func(ctx context.Context, webLogID string) (V, error)

// KeyedCache is a lazy per-key cache. Each key's value is replaced through
// an atomic pointer, so readers never take the population lock: during a
// refresh they keep seeing the prior value, and a reader racing the very
// first population either waits for it or triggers it, but never observes a
// half-built value. The population mutex is per entry, so loading key A
// cannot stall a read or refresh of key B.
type KeyedCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*keyedEntry[V]
	load    Loader[V]
}

type keyedEntry[V any] struct {
	mu    sync.Mutex
	value atomic.Pointer[V]
}

func NewKeyedCache[V any](load Loader[V]) *KeyedCache[V] {
	return &KeyedCache[V]{
		entries: make(map[string]*keyedEntry[V]),
		load:    load,
	}
}

// Get returns the cached value for the key, populating it on first access.
func (c *KeyedCache[V]) Get(ctx context.Context, key string) (V, error) {
	entry := c.entry(key)

	if v := entry.value.Load(); v != nil {
		return *v, nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if v := entry.value.Load(); v != nil {
		return *v, nil
	}

	value, err := c.load(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}
	entry.value.Store(&value)
	return value, nil
}

// TryGet returns the cached value without triggering population.
func (c *KeyedCache[V]) TryGet(key string) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}

	v := entry.value.Load()
	if v == nil {
		var zero V
		return zero, false
	}
	return *v, true
}

// Exists reports whether the key has a populated value.
func (c *KeyedCache[V]) Exists(key string) bool {
	_, ok := c.TryGet(key)
	return ok
}

// Refresh rebuilds the key's value. Concurrent readers keep the prior value
// until the rebuild completes, then see the new one whole.
func (c *KeyedCache[V]) Refresh(ctx context.Context, key string) error {
	entry := c.entry(key)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	value, err := c.load(ctx, key)
	if err != nil {
		return err
	}
	entry.value.Store(&value)
	return nil
}

// Remove drops the key entirely; the next Get repopulates.
func (c *KeyedCache[V]) Remove(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *KeyedCache[V]) entry(key string) *keyedEntry[V] {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return entry
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok = c.entries[key]; ok {
		return entry
	}
	entry = &keyedEntry[V]{}
	c.entries[key] = entry
	return entry
}
