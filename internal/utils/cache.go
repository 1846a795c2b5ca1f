package utils

import (
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// fileStamp identifies one version of a file on disk
type fileStamp struct {
	modTime time.Time
	size    int64
}

func stampOf(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}, nil
}

type entry[V any] struct {
	value V
	stamp *fileStamp // nil for entries not tied to a file
}

// CacheStats reports the activity of a Cache
type CacheStats struct {
	Size      int
	Hits      int64
	Misses    int64
	Evictions int64 // entries dropped because their file changed
}

// Cache is a concurrency safe map whose entries may be tied to a file.
// A file-tied entry is only served while the file keeps the size and
// modification time it had when the entry was stored.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewCache creates an empty cache
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]entry[V])}
}

func (c *Cache[K, V]) lookup(key K) (entry[V], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *Cache[K, V]) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

// Get returns the value stored under key
func (c *Cache[K, V]) Get(key K) (V, bool) {
	e, ok := c.lookup(key)
	c.record(ok)
	return e.value, ok
}

// GetFresh returns the value stored under key if path is unchanged since
// PutStamped. A stale entry is evicted.
func (c *Cache[K, V]) GetFresh(key K, path string) (V, bool) {
	var zero V
	e, ok := c.lookup(key)
	if !ok {
		c.record(false)
		return zero, false
	}
	if e.stamp != nil {
		if now, err := stampOf(path); err == nil && now.size == e.stamp.size && now.modTime.Equal(e.stamp.modTime) {
			c.record(true)
			return e.value, true
		}
	}
	c.Forget(key)
	c.evictions.Add(1)
	c.record(false)
	return zero, false
}

// Put stores value under key
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value}
	c.mu.Unlock()
}

// PutStamped stores value under key, tied to the current version of path
func (c *Cache[K, V]) PutStamped(key K, value V, path string) error {
	stamp, err := stampOf(path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, stamp: &stamp}
	c.mu.Unlock()
	return nil
}

// Load returns the value under key, computing and storing it on a miss.
// Failed loads are not stored.
func (c *Cache[K, V]) Load(key K, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err == nil {
		c.Put(key, v)
	}
	return v, err
}

// Forget drops key
func (c *Cache[K, V]) Forget(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Reset drops every entry. Counters keep running.
func (c *Cache[K, V]) Reset() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]K, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

func (c *Cache[K, V]) Stats() CacheStats {
	return CacheStats{
		Size:      c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
