package segment

import "sync"

// SegmentCache holds the open SegmentRefs for one level, keyed by Segment
// id. It mirrors SegmentBlockCache's one-shot-per-slot shape: concurrent
// readers share refs already open; only the first caller for a given id
// pays to open it.
type SegmentCache struct {
	mu   sync.RWMutex
	refs map[uint64]*SegmentRef
}

// NewSegmentCache returns an empty cache.
func NewSegmentCache() *SegmentCache {
	return &SegmentCache{refs: make(map[uint64]*SegmentRef)}
}

// Get returns the cached ref for id, if open.
func (c *SegmentCache) Get(id uint64) (*SegmentRef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.refs[id]
	return r, ok
}

// PutIfAbsent installs ref under its id unless another ref is already
// registered there, in which case the existing ref is returned and ref is
// left untouched for the caller to close.
func (c *SegmentCache) PutIfAbsent(ref *SegmentRef) (*SegmentRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.refs[ref.id]; ok {
		return existing, false
	}
	c.refs[ref.id] = ref
	return ref, true
}

// Remove drops id from the cache and returns the ref that was removed, if
// any, so the caller can Close it once outstanding readers release it.
func (c *SegmentCache) Remove(id uint64) (*SegmentRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.refs[id]
	if ok {
		delete(c.refs, id)
	}
	return r, ok
}

// Snapshot returns every currently-cached ref ordered by nothing in
// particular; callers needing key order should sort by MinKey themselves.
func (c *SegmentCache) Snapshot() []*SegmentRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*SegmentRef, 0, len(c.refs))
	for _, r := range c.refs {
		out = append(out, r)
	}
	return out
}

// Len reports how many Segments are currently open.
func (c *SegmentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.refs)
}
