package segment

import (
	"sort"

	"github.com/iamNilotpal/swaydb/pkg/errors"
	"github.com/iamNilotpal/swaydb/pkg/slice"
)

// ChildRef is one entry in a Many segment's list: a child Segment's id and
// the minimum key it owns. Children are kept sorted by MinKey so the
// owning child for any key is a single bisection away.
type ChildRef struct {
	ID     uint64
	MinKey []byte
}

// Opener lazily materializes the SegmentRef for a child id — the actual
// file open only happens the first time a child is addressed.
type Opener func(id uint64) (*SegmentRef, error)

// Many is PersistentSegmentMany: a list-Segment whose body is a sorted
// table of child min-key -> id, with each child SegmentRef opened on
// first access and cached thereafter (spec.md §4.6's "container Segment"
// shape).
type Many struct {
	id       uint64
	children []ChildRef
	cache    *SegmentCache
	open     Opener
	cmp      slice.Comparator
}

// NewMany returns a Many whose children are already sorted by MinKey
// (the builder that assembles a Many segment is responsible for sorting).
func NewMany(id uint64, children []ChildRef, open Opener, cmp slice.Comparator) *Many {
	if cmp == nil {
		cmp = slice.DefaultComparator
	}
	return &Many{id: id, children: children, cache: NewSegmentCache(), open: open, cmp: cmp}
}

// ID returns the container Segment's own id.
func (m *Many) ID() uint64 { return m.id }

// ChildCount reports how many child Segments this container lists.
func (m *Many) ChildCount() int { return len(m.children) }

// childIndexFor returns the index of the last child whose MinKey <= key.
func (m *Many) childIndexFor(key []byte) (int, bool) {
	i := sort.Search(len(m.children), func(i int) bool {
		return m.cmp(m.children[i].MinKey, key) > 0
	})
	if i == 0 {
		return 0, false
	}
	return i - 1, true
}

// ChildFor resolves the child Segment owning key, opening it on first
// access via Opener and caching the ref for subsequent lookups.
func (m *Many) ChildFor(key []byte) (*SegmentRef, error) {
	idx, ok := m.childIndexFor(key)
	if !ok {
		return nil, errors.NewIndexError(nil, errors.ErrorCodeIndexKeyNotFound, "key precedes every child segment's min key")
	}
	return m.openChild(m.children[idx].ID)
}

// ChildAt opens (or returns the cached ref for) the child at position idx
// in min-key order.
func (m *Many) ChildAt(idx int) (*SegmentRef, error) {
	if idx < 0 || idx >= len(m.children) {
		return nil, errors.NewIndexError(nil, errors.ErrorCodeIndexKeyNotFound, "child index out of range")
	}
	return m.openChild(m.children[idx].ID)
}

func (m *Many) openChild(id uint64) (*SegmentRef, error) {
	if ref, ok := m.cache.Get(id); ok {
		return ref, nil
	}
	ref, err := m.open(id)
	if err != nil {
		return nil, err
	}
	installed, _ := m.cache.PutIfAbsent(ref)
	return installed, nil
}

// Close releases every child Segment currently open in the cache.
func (m *Many) Close() error {
	var firstErr error
	for _, ref := range m.cache.Snapshot() {
		if err := ref.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
