// Package traversal implements Get/Higher/Lower: the read-path algorithm
// that walks a stack of levels, shallowest (most recently written) first,
// merging a level's entry against whatever lies beneath it whenever that
// entry alone cannot prove the key's effective value (spec.md §4.7).
package traversal

import (
	"sort"
	"time"

	"github.com/iamNilotpal/swaydb/internal/function"
	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/iamNilotpal/swaydb/internal/level0"
	"github.com/iamNilotpal/swaydb/internal/merge"
	"github.com/iamNilotpal/swaydb/internal/segment"
	"github.com/iamNilotpal/swaydb/pkg/slice"
)

// Level is one tier a Traversal walks. Level 0's in-memory map and a
// persistent level's sorted Segments both implement it.
type Level interface {
	// Resolve returns this level's local effective value for key: a direct
	// fixed entry, or the value a containing Range represents key as.
	Resolve(key []byte) (kv.Value, bool, error)

	// HigherEntry/LowerEntry return the nearest key this level holds any
	// entry for strictly above/below key, and that entry's raw value.
	HigherEntry(key []byte) (foundKey []byte, value kv.Value, ok bool, err error)
	LowerEntry(key []byte) (foundKey []byte, value kv.Value, ok bool, err error)
}

// Level0Level adapts a LevelZeroMapCache to the Level interface.
type Level0Level struct {
	Map *level0.Map
}

func (l Level0Level) Resolve(key []byte) (kv.Value, bool, error) {
	v, ok := l.Map.Resolve(key)
	return v, ok, nil
}

func (l Level0Level) HigherEntry(key []byte) ([]byte, kv.Value, bool, error) {
	v, k, ok := l.Map.Higher(key)
	return k, v, ok, nil
}

func (l Level0Level) LowerEntry(key []byte) ([]byte, kv.Value, bool, error) {
	v, k, ok := l.Map.Lower(key)
	return k, v, ok, nil
}

// SegmentLevel adapts a sorted run of persistent Segments to the Level
// interface. Segments must be sorted and non-overlapping, the invariant the
// assigner and defrag pipeline maintain for every level beyond 0.
type SegmentLevel struct {
	Segments []*segment.SegmentRef
	Cmp      slice.Comparator
}

func (l *SegmentLevel) cmp() slice.Comparator {
	if l.Cmp != nil {
		return l.Cmp
	}
	return slice.DefaultComparator
}

// find returns the Segment whose [MinKey, MaxKey] bounds key, if any.
func (l *SegmentLevel) find(key []byte) (*segment.SegmentRef, bool) {
	cmp := l.cmp()
	segs := l.Segments
	i := sort.Search(len(segs), func(i int) bool { return cmp(segs[i].MaxKey(), key) >= 0 })
	if i < len(segs) && cmp(segs[i].MinKey(), key) <= 0 {
		return segs[i], true
	}
	return nil, false
}

func (l *SegmentLevel) Resolve(key []byte) (kv.Value, bool, error) {
	seg, ok := l.find(key)
	if !ok {
		return nil, false, nil
	}
	return segment.NewSearcher(seg, l.cmp()).GetValue(key)
}

// HigherEntry scans forward from the first Segment whose MaxKey exceeds
// key; that Segment necessarily holds the answer since its MaxKey is
// itself a real stored key greater than key.
func (l *SegmentLevel) HigherEntry(key []byte) ([]byte, kv.Value, bool, error) {
	cmp := l.cmp()
	segs := l.Segments
	idx := sort.Search(len(segs), func(i int) bool { return cmp(segs[i].MaxKey(), key) > 0 })
	for ; idx < len(segs); idx++ {
		k, v, found, err := segment.NewSearcher(segs[idx], cmp).HigherValue(key)
		if err != nil {
			return nil, nil, false, err
		}
		if found {
			return k, v, true, nil
		}
	}
	return nil, nil, false, nil
}

// LowerEntry is HigherEntry's mirror, scanning backward from the last
// Segment whose MinKey is below key.
func (l *SegmentLevel) LowerEntry(key []byte) ([]byte, kv.Value, bool, error) {
	cmp := l.cmp()
	segs := l.Segments
	idx := sort.Search(len(segs), func(i int) bool { return cmp(segs[i].MinKey(), key) >= 0 }) - 1
	for ; idx >= 0; idx-- {
		k, v, found, err := segment.NewSearcher(segs[idx], cmp).LowerValue(key)
		if err != nil {
			return nil, nil, false, err
		}
		if found {
			return k, v, true, nil
		}
	}
	return nil, nil, false, nil
}

// Traversal runs Get/Higher/Lower over an ordered stack of Levels, newest
// first.
type Traversal struct {
	Levels []Level
	Fns    *function.Store
	Cmp    slice.Comparator
	Now    func() time.Time
}

// New returns a Traversal over levels, shallowest (most recent writes)
// first. fns resolves Function key-values encountered mid-merge.
func New(levels []Level, fns *function.Store, cmp slice.Comparator) *Traversal {
	if cmp == nil {
		cmp = slice.DefaultComparator
	}
	if fns == nil {
		fns = function.NewStore()
	}
	return &Traversal{Levels: levels, Fns: fns, Cmp: cmp, Now: time.Now}
}

func (t *Traversal) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// isLive reports whether v is a Put whose deadline (if any) has not yet
// passed — the only shape Get ever surfaces to a caller.
func isLive(v kv.Value, now time.Time) bool {
	p, ok := v.(kv.Put)
	if !ok {
		return false
	}
	return !p.Deadline.IsExpired(now)
}

// Get resolves key's effective value across every level, merging a
// non-determining entry against the levels beneath it until either a live
// Put is produced or every level is exhausted (spec.md §4.7).
func (t *Traversal) Get(key []byte) (kv.Value, bool, error) {
	v, found, err := t.resolveFrom(key, 0)
	if err != nil || !found {
		return nil, false, err
	}
	if isLive(v, t.now()) {
		return v, true, nil
	}
	return nil, false, nil
}

// resolveFrom folds the entry at Levels[idx:] for key into a single
// effective value, recursing into deeper levels only when the shallowest
// present entry cannot resolve on its own (a Remove/Update/Function/
// PendingApply — anything but a Put needs what lies beneath it, per
// internal/merge's algebra).
func (t *Traversal) resolveFrom(key []byte, idx int) (kv.Value, bool, error) {
	if idx >= len(t.Levels) {
		return nil, false, nil
	}

	v, found, err := t.Levels[idx].Resolve(key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return t.resolveFrom(key, idx+1)
	}
	if _, ok := v.(kv.Put); ok {
		return v, true, nil
	}

	lower, lowerFound, err := t.resolveFrom(key, idx+1)
	if err != nil {
		return nil, false, err
	}
	if !lowerFound {
		// Nothing beneath to merge against: a Remove/Update/Function alone
		// (no underlying value) settles to absent; a PendingApply with no
		// base to apply against does too.
		return nil, false, nil
	}

	merged, err := merge.Merge(key, v, lower, t.Fns, t.Cmp)
	if err != nil {
		return nil, false, err
	}
	return merged, true, nil
}

// Higher returns the key/value pair with the smallest key strictly greater
// than key across every level, resolving the winning key's full merged
// value via Get so Range coverage and multi-level merges are honored
// identically to a point lookup (spec.md §4.7).
func (t *Traversal) Higher(key []byte) ([]byte, kv.Value, bool, error) {
	return t.nearest(key, func(l Level, k []byte) ([]byte, kv.Value, bool, error) {
		return l.HigherEntry(k)
	}, func(a, b []byte) bool { return t.Cmp(a, b) < 0 })
}

// Lower is Higher's mirror: the greatest key strictly less than key.
func (t *Traversal) Lower(key []byte) ([]byte, kv.Value, bool, error) {
	return t.nearest(key, func(l Level, k []byte) ([]byte, kv.Value, bool, error) {
		return l.LowerEntry(k)
	}, func(a, b []byte) bool { return t.Cmp(a, b) > 0 })
}

// nearest picks, among every level's candidate neighbor of key, the one
// closest to key per better, then resolves that key's effective value with
// Get. When Get reports the candidate absent (every level's entry for it
// merged away to nothing), it retries from that candidate — which is
// guaranteed to move strictly past key, so the search always makes
// progress.
func (t *Traversal) nearest(
	key []byte,
	step func(Level, []byte) ([]byte, kv.Value, bool, error),
	better func(a, b []byte) bool,
) ([]byte, kv.Value, bool, error) {
	var best []byte
	for _, lvl := range t.Levels {
		k, _, found, err := step(lvl, key)
		if err != nil {
			return nil, nil, false, err
		}
		if !found {
			continue
		}
		if best == nil || better(k, best) {
			best = k
		}
	}
	if best == nil {
		return nil, nil, false, nil
	}

	v, found, err := t.Get(best)
	if err != nil {
		return nil, nil, false, err
	}
	if !found {
		return t.nearest(best, step, better)
	}
	return best, v, true, nil
}
