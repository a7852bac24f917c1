// Package level0 implements LevelZeroMapCache: the in-memory, range-aware
// write-buffer an engine's Level 0 writer appends Put/Remove/Update/Range/
// Function/PendingApply entries into (spec.md §4.3). Writes are
// single-writer; Map serializes them under one mutex, matching spec.md §5's
// "Level 0 writes: serialised by the level's writer" rule.
package level0

import (
	"sync"

	"github.com/iamNilotpal/swaydb/internal/function"
	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/iamNilotpal/swaydb/internal/merge"
	"github.com/iamNilotpal/swaydb/pkg/slice"
)

// entry is one slot in the map: either a fixed versioned-value keyed by its
// own key, or a Range keyed by its FromKey.
type entry struct {
	key   []byte
	value kv.Value // kv.Range for range slots, any other variant for fixed slots
}

// Map is LevelZeroMapCache. Entries are kept in a sorted slice ordered by
// key — adequate for the write volumes a single in-memory level buffer
// sees, and it makes Floor/Higher/Lower trivial to implement correctly,
// which is the property spec.md §4.3/§8.1 actually tests.
type Map struct {
	mu      sync.Mutex
	cmp     slice.Comparator
	fns     *function.Store
	entries []entry
}

// Config supplies the comparator and FunctionStore a Map needs to apply
// Function key-values during range-split merges.
type Config struct {
	Comparator slice.Comparator
	Functions  *function.Store
}

// New returns an empty Map.
func New(cfg Config) *Map {
	cmp := cfg.Comparator
	if cmp == nil {
		cmp = slice.DefaultComparator
	}
	fns := cfg.Functions
	if fns == nil {
		fns = function.NewStore()
	}
	return &Map{cmp: cmp, fns: fns}
}

// Len returns the number of entries (fixed values and ranges alike)
// currently held.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// search finds the insertion point for key: the index of the first entry
// whose key is >= key (entries is assumed sorted by key throughout).
func (m *Map) search(key []byte) int {
	lo, hi := 0, len(m.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if m.cmp(m.entries[mid].key, key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (m *Map) entryAt(i int) (entry, bool) {
	if i < 0 || i >= len(m.entries) {
		return entry{}, false
	}
	return m.entries[i], true
}

// floorIndex returns the index of the entry with the greatest key <= key,
// or -1 if none.
func (m *Map) floorIndex(key []byte) int {
	i := m.search(key)
	if i < len(m.entries) && m.cmp(m.entries[i].key, key) == 0 {
		return i
	}
	return i - 1
}

// Get returns the fixed entry exactly at key, if present as a direct
// fixed slot (not derived from a containing Range).
func (m *Map) Get(key []byte) (kv.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.search(key)
	if e, ok := m.entryAt(i); ok && m.cmp(e.key, key) == 0 {
		return e.value, true
	}
	return nil, false
}

// Floor returns the entry (fixed or Range) whose key is the greatest key
// <= the given key.
func (m *Map) Floor(key []byte) (kv.Value, []byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.floorIndex(key)
	if e, ok := m.entryAt(i); ok {
		return e.value, e.key, true
	}
	return nil, nil, false
}

// Higher returns the entry with the smallest key strictly greater than key.
func (m *Map) Higher(key []byte) (kv.Value, []byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.search(key)
	if e, ok := m.entryAt(i); ok && m.cmp(e.key, key) == 0 {
		i++
	}
	if e, ok := m.entryAt(i); ok {
		return e.value, e.key, true
	}
	return nil, nil, false
}

// Lower returns the entry with the greatest key strictly less than key.
func (m *Map) Lower(key []byte) (kv.Value, []byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.search(key)
	if e, ok := m.entryAt(i-1); ok {
		return e.value, e.key, true
	}
	return nil, nil, false
}

// Resolve returns the local effective value at key: a direct fixed entry,
// or — when key falls inside a Range — that Range's FromValue (if key is
// exactly the Range's FromKey and a fixed value was folded into it) or its
// RangeValue otherwise, per spec.md §4.3's representation contract for a
// fixed key absorbed into a Range. Traversal (spec.md §4.7) uses this as
// "the current level's entry for key" rather than Get, which only ever
// reports a standalone fixed slot.
func (m *Map) Resolve(key []byte) (kv.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.search(key)
	if e, ok := m.entryAt(i); ok && m.cmp(e.key, key) == 0 {
		if r, isRange := e.value.(kv.Range); isRange {
			if r.FromValue != nil {
				return r.FromValue, true
			}
			return r.RangeValue, true
		}
		return e.value, true
	}

	fi := m.floorIndex(key)
	if e, ok := m.entryAt(fi); ok {
		if r, isRange := e.value.(kv.Range); isRange && r.Contains(key, m.cmp) {
			return r.RangeValue, true
		}
	}
	return nil, false
}

// Entry is one key-value pair as Entries reports it: either a fixed value
// keyed by its own key, or a Range keyed by its FromKey.
type Entry struct {
	Key   []byte
	Value kv.Value
}

// Entries returns every entry currently held, in ascending key order — the
// engine's flush path uses this to drain Level 0 into a persistent level
// via Defrag (spec.md §4.6).
func (m *Map) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	for i, e := range m.entries {
		out[i] = Entry{Key: e.key, Value: e.value}
	}
	return out
}

// Clear empties the map. Callers use this after Entries' result has been
// durably committed to a persistent level.
func (m *Map) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
}

func (m *Map) insertAt(i int, e entry) {
	m.entries = append(m.entries, entry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = e
}

func (m *Map) removeAt(i int) {
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
}

// Write applies entryValue to the map, preserving the invariants of
// spec.md §4.3: distinct keys and non-overlapping ranges. A fixed key
// written into an existing Range becomes the FromValue of a sub-range
// starting at that key, and a fixed key at a new Range's FromKey is folded
// into that Range's FromValue. A non-Remove Range written over fixed keys
// strictly inside its interval does not split: those keys stay standalone
// entries holding the merged value, inside the Range's interval.
func (m *Map) Write(key []byte, value kv.Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := value.(kv.Range); ok {
		return m.writeRange(r)
	}
	return m.writeFixed(key, value)
}

// writeFixed handles Fixed-on-Fixed and Fixed-inside-Range (spec.md §4.3).
func (m *Map) writeFixed(key []byte, value kv.Value) error {
	i := m.search(key)
	if e, ok := m.entryAt(i); ok && m.cmp(e.key, key) == 0 {
		if r, isRange := e.value.(kv.Range); isRange {
			return m.foldFixedIntoRange(i, r, key, value)
		}
		merged, err := merge.Merge(key, value, e.value, m.fns, m.cmp)
		if err != nil {
			return err
		}
		m.entries[i] = entry{key: key, value: merged}
		return nil
	}

	// key may fall strictly inside the Range at floorIndex (if any).
	fi := m.floorIndex(key)
	if e, ok := m.entryAt(fi); ok {
		if r, isRange := e.value.(kv.Range); isRange && r.Contains(key, m.cmp) {
			return m.foldFixedIntoRange(fi, r, key, value)
		}
	}

	e := entry{key: key, value: value}
	m.insertAt(i, e)
	return nil
}

// foldFixedIntoRange splits the Range at i into up to three pieces per
// spec.md §4.3: [lo, key) with R, a one-key sub-range [key, next) whose
// FromValue holds the merged fixed value, and [next, hi) with R — where
// next is the Range's original ToKey if key == R.FromKey (no left piece),
// or otherwise key's synthetic successor (key followed by a 0x00 byte).
// When that successor does not sort strictly between key and R.ToKey, the
// sub-range runs to R.ToKey and there is no third piece.
func (m *Map) foldFixedIntoRange(i int, r kv.Range, key []byte, fixed kv.Value) error {
	base := r.FromValue
	if base == nil {
		base = r.RangeValue
	}
	merged, err := merge.Merge(key, fixed, base, m.fns, m.cmp)
	if err != nil {
		return err
	}

	pieces := make([]entry, 0, 3)
	if m.cmp(r.FromKey, key) < 0 {
		pieces = append(pieces, entry{key: r.FromKey, value: kv.Range{
			FromKey: r.FromKey, ToKey: key, FromValue: r.FromValue, RangeValue: r.RangeValue, Time: r.Time,
		}})
	}

	subTo := r.ToKey
	if m.cmp(r.FromKey, key) < 0 {
		next := append(append([]byte{}, key...), 0)
		if m.cmp(key, next) < 0 && m.cmp(next, r.ToKey) < 0 {
			subTo = next
		}
	}
	pieces = append(pieces, entry{key: key, value: kv.Range{
		FromKey: key, ToKey: subTo, FromValue: merged, RangeValue: r.RangeValue, Time: r.Time,
	}})
	if m.cmp(subTo, r.ToKey) < 0 {
		pieces = append(pieces, entry{key: subTo, value: kv.Range{
			FromKey: subTo, ToKey: r.ToKey, RangeValue: r.RangeValue, Time: r.Time,
		}})
	}

	m.removeAt(i)
	for idx, p := range pieces {
		m.insertAt(i+idx, p)
	}
	return nil
}

// writeRange handles Range-on-disjoint-space, Range-overlapping-Range and
// Remove-Range-over-fixed (spec.md §4.3). It computes the full set of
// entries r's interval touches in one pass, builds their replacement
// fragments, and splices everything in with a single slice operation —
// no iterative re-splitting, so a fragment that happens to coincide
// exactly with r's own interval can never trigger another round of the
// same split.
func (m *Map) writeRange(r kv.Range) error {
	start := m.search(r.FromKey)
	if start > 0 {
		if pr, ok := m.entries[start-1].value.(kv.Range); ok && m.cmp(pr.ToKey, r.FromKey) > 0 {
			start--
		}
	}

	end := start
	for end < len(m.entries) && m.cmp(m.entries[end].key, r.ToKey) < 0 {
		end++
	}

	var fragments []entry
	var foldedFromValue kv.Value

	for idx := start; idx < end; idx++ {
		e := m.entries[idx]
		if old, isRange := e.value.(kv.Range); isRange {
			left, right, folded, err := splitRangeAgainst(old, r, m.cmp)
			if err != nil {
				return err
			}
			if left != nil {
				fragments = append(fragments, *left)
			}
			if right != nil {
				fragments = append(fragments, *right)
			}
			if folded != nil {
				foldedFromValue = folded
			}
			continue
		}
		if r.Contains(e.key, m.cmp) {
			if _, isRemove := r.RangeValue.(kv.Remove); isRemove {
				continue // dropped: cleared by the remove-range
			}
			merged, err := merge.Merge(e.key, r.RangeValue, e.value, m.fns, m.cmp)
			if err != nil {
				return err
			}
			if m.cmp(e.key, r.FromKey) == 0 {
				foldedFromValue = merged
				continue
			}
			fragments = append(fragments, entry{key: e.key, value: merged})
			continue
		}
		fragments = append(fragments, e)
	}

	newRange := r
	if foldedFromValue != nil {
		merged := foldedFromValue
		if newRange.FromValue != nil {
			m2, err := merge.Merge(newRange.FromKey, newRange.FromValue, foldedFromValue, m.fns, m.cmp)
			if err != nil {
				return err
			}
			merged = m2
		}
		newRange.FromValue = merged
	}
	newEntry := entry{key: newRange.FromKey, value: newRange}

	var before, after []entry
	for _, f := range fragments {
		if m.cmp(f.key, r.FromKey) < 0 {
			before = append(before, f)
		} else {
			after = append(after, f)
		}
	}

	replacement := append(append(before, newEntry), after...)
	tail := append([]entry{}, m.entries[end:]...)
	m.entries = append(m.entries[:start:start], replacement...)
	m.entries = append(m.entries, tail...)
	return nil
}

// splitRangeAgainst cuts old down to the parts of [old.FromKey, old.ToKey)
// that fall outside r's interval, since the overlapping middle is
// superseded entirely by r (r is always the newer write — spec.md §4.3's
// Range-on-Range rule). When old.FromKey coincides with r.FromKey and old
// carries a folded fixed value there, that value is returned separately so
// the caller can combine it with r's own FromValue instead of silently
// dropping it.
func splitRangeAgainst(old, r kv.Range, cmp slice.Comparator) (left, right *entry, foldedFromValue kv.Value, err error) {
	lo := r.FromKey
	if cmp(old.FromKey, lo) > 0 {
		lo = old.FromKey
	}
	hi := r.ToKey
	if cmp(old.ToKey, hi) < 0 {
		hi = old.ToKey
	}
	if cmp(lo, hi) >= 0 {
		return nil, nil, nil, nil
	}

	if cmp(old.FromKey, lo) < 0 {
		left = &entry{key: old.FromKey, value: kv.Range{
			FromKey: old.FromKey, ToKey: lo, FromValue: old.FromValue, RangeValue: old.RangeValue, Time: old.Time,
		}}
	} else if old.FromValue != nil && cmp(old.FromKey, r.FromKey) == 0 {
		foldedFromValue = old.FromValue
	}

	if cmp(hi, old.ToKey) < 0 {
		right = &entry{key: hi, value: kv.Range{
			FromKey: hi, ToKey: old.ToKey, FromValue: nil, RangeValue: old.RangeValue, Time: old.Time,
		}}
	}

	return left, right, foldedFromValue, nil
}
