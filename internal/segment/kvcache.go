package segment

import (
	"sync"

	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/iamNilotpal/swaydb/pkg/slice"
)

// KVCache is the per-Segment concurrent skiplist of recently read
// key-values spec.md §3.4/§4.2/§5 describe: every raw block-layer hit is
// inserted here with compare-and-set (insert-wins) semantics, and the
// memory sweeper is notified only on a winning insert — a reader that
// lost the race discards its local result and reuses the stored one, so
// at most one cache entry per key ever exists. It is a sorted slice
// behind a RWMutex rather than a true skiplist, the same "a sorted slice
// makes Floor/Higher/Lower correct by construction" reasoning
// internal/level0.Map already uses for the write path, generalized here
// to a read-through cache.
type KVCache struct {
	mu      sync.RWMutex
	cmp     slice.Comparator
	entries []kvCacheEntry
	sweeper MemorySweeper
}

type kvCacheEntry struct {
	key   []byte
	value kv.Value
}

// NewKVCache returns an empty cache. sweeper is notified with the entry's
// key size on every winning PutIfAbsent.
func NewKVCache(cmp slice.Comparator, sweeper MemorySweeper) *KVCache {
	if cmp == nil {
		cmp = slice.DefaultComparator
	}
	if sweeper == nil {
		sweeper = func(int, string) {}
	}
	return &KVCache{cmp: cmp, sweeper: sweeper}
}

func (c *KVCache) search(key []byte) int {
	lo, hi := 0, len(c.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if c.cmp(c.entries[mid].key, key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Get returns the cached value exactly at key.
func (c *KVCache) Get(key []byte) (kv.Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.search(key)
	if i < len(c.entries) && c.cmp(c.entries[i].key, key) == 0 {
		return c.entries[i].value, true
	}
	return nil, false
}

// PutIfAbsent installs value under key unless an entry is already present,
// in which case the existing value is returned and won is false — the
// insert-wins discipline spec.md §5 requires of this cache.
func (c *KVCache) PutIfAbsent(key []byte, value kv.Value) (stored kv.Value, won bool) {
	c.mu.Lock()
	i := c.search(key)
	if i < len(c.entries) && c.cmp(c.entries[i].key, key) == 0 {
		existing := c.entries[i].value
		c.mu.Unlock()
		return existing, false
	}
	e := kvCacheEntry{key: append([]byte{}, key...), value: value}
	c.entries = append(c.entries, kvCacheEntry{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = e
	c.mu.Unlock()
	c.sweeper(len(key), "segment-kv-cache")
	return value, true
}

// Remove evicts key, used by an external memory sweeper (spec.md §6.3).
func (c *KVCache) Remove(key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.search(key)
	if i < len(c.entries) && c.cmp(c.entries[i].key, key) == 0 {
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
	}
}

// Floor returns the cached entry with the greatest key <= key.
func (c *KVCache) Floor(key []byte) (kv.Value, []byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.search(key)
	if i < len(c.entries) && c.cmp(c.entries[i].key, key) == 0 {
		return c.entries[i].value, c.entries[i].key, true
	}
	i--
	if i >= 0 && i < len(c.entries) {
		return c.entries[i].value, c.entries[i].key, true
	}
	return nil, nil, false
}

// Higher returns the cached entry with the smallest key strictly > key.
func (c *KVCache) Higher(key []byte) (kv.Value, []byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.search(key)
	if i < len(c.entries) && c.cmp(c.entries[i].key, key) == 0 {
		i++
	}
	if i >= 0 && i < len(c.entries) {
		return c.entries[i].value, c.entries[i].key, true
	}
	return nil, nil, false
}
