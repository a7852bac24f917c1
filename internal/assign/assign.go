// Package assign implements the SegmentAssigner: it routes a sorted stream
// of Assignables (single key-values or whole sub-Segments) onto a sorted
// list of target Segments, using a single head-of-stream cursor so both the
// stream and the target list are each walked forward exactly once.
package assign

import (
	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/iamNilotpal/swaydb/pkg/errors"
	"github.com/iamNilotpal/swaydb/pkg/slice"
)

// Assignable is anything the assigner can route to a target Segment: a
// single key-value or a sub-Segment carried along during compaction.
type Assignable interface {
	// Key is the assignable's low key, the value the cursor compares
	// against target boundaries.
	Key() []byte

	// Bound returns the assignable's high key and whether that bound is a
	// Range-style exclusive end (true) or an inclusive end — a Fixed key's
	// own key, or a sub-Segment's Fixed max key (false).
	Bound() (key []byte, exclusive bool)

	// IsSubSegment reports whether this assignable is a whole sub-Segment,
	// which must be exploded onto the stream rather than split in place
	// when it spreads across a target boundary.
	IsSubSegment() bool
}

// KeyValue is an Assignable wrapping a single key-value pair.
type KeyValue struct {
	K []byte
	V kv.Value
}

func (a KeyValue) Key() []byte { return a.K }

func (a KeyValue) Bound() ([]byte, bool) {
	if r, ok := a.V.(kv.Range); ok {
		return r.ToKey, true
	}
	return a.K, false
}

func (a KeyValue) IsSubSegment() bool { return false }

// SubSegment is an Assignable wrapping a whole sub-Segment carried during
// compaction. Items holds its key-values in ascending order, exploded onto
// the stream when the sub-Segment spreads across a target boundary.
type SubSegment struct {
	MinKey     []byte
	MaxKey     []byte
	MaxIsRange bool
	Items      []Assignable
}

func (a SubSegment) Key() []byte { return a.MinKey }

func (a SubSegment) Bound() ([]byte, bool) { return a.MaxKey, a.MaxIsRange }

func (a SubSegment) IsSubSegment() bool { return true }

// Target is one persistent Segment being assigned into.
type Target struct {
	MinKey []byte
	MaxKey []byte
}

// Entry is one produced assignment: either an AssignedBuffer (TargetIndex
// names the target in the original targets slice) or a Gap (IsGap true,
// TargetIndex meaningless).
type Entry struct {
	IsGap       bool
	TargetIndex int
	Items       []Assignable
}

// Assign routes stream onto targets using the head-of-stream cursor
// algorithm. noGaps=false allows Gap entries for key-values that fall
// outside every target's range; noGaps=true forbids them — any assignable
// that cannot be routed to a live target then is a fatal ErrorCodeAssignNoTarget.
func Assign(stream []Assignable, targets []Target, noGaps bool, cmp slice.Comparator) ([]Entry, error) {
	if cmp == nil {
		cmp = slice.DefaultComparator
	}

	queue := make([]Assignable, len(stream))
	copy(queue, stream)

	var entries []Entry

	appendToTarget := func(ti int, item Assignable) {
		if n := len(entries); n > 0 && !entries[n-1].IsGap && entries[n-1].TargetIndex == ti {
			entries[n-1].Items = append(entries[n-1].Items, item)
			return
		}
		entries = append(entries, Entry{TargetIndex: ti, Items: []Assignable{item}})
	}
	appendGap := func(item Assignable) {
		if n := len(entries); n > 0 && entries[n-1].IsGap {
			entries[n-1].Items = append(entries[n-1].Items, item)
			return
		}
		entries = append(entries, Entry{IsGap: true, Items: []Assignable{item}})
	}
	lastTargetsT := func(ti int) bool {
		n := len(entries)
		return n > 0 && !entries[n-1].IsGap && entries[n-1].TargetIndex == ti
	}

	ti := 0
	for len(queue) > 0 {
		if len(targets) == 0 {
			a := queue[0]
			if noGaps {
				return nil, errors.NewAssignError(nil, errors.ErrorCodeAssignNoTarget, "assignable arrived with no current target").
					WithKey(string(a.Key()))
			}
			appendGap(a)
			queue = queue[1:]
			continue
		}

		a := queue[0]
		t := targets[ti]
		var n *Target
		if ti+1 < len(targets) {
			n = &targets[ti+1]
		}

		key := a.Key()
		boundKey, exclusive := a.Bound()

		if n != nil && a.IsSubSegment() {
			spreads := false
			if exclusive {
				spreads = cmp(boundKey, n.MinKey) > 0
			} else {
				spreads = cmp(boundKey, n.MinKey) >= 0
			}
			if spreads {
				sub, ok := a.(SubSegment)
				if ok {
					rest := append([]Assignable{}, sub.Items...)
					queue = append(rest, queue[1:]...)
					continue
				}
			}
		}

		belongsToT := cmp(key, t.MinKey) <= 0 || belongsByBound(boundKey, t.MaxKey, cmp)

		if belongsToT || n == nil {
			if !noGaps && cmp(key, t.MinKey) < 0 {
				appendGap(a)
			} else {
				appendToTarget(ti, a)
			}
			queue = queue[1:]
			continue
		}

		if kvItem, ok := a.(KeyValue); ok {
			if r, isRange := kvItem.V.(kv.Range); isRange && cmp(r.ToKey, n.MinKey) > 0 {
				left := kv.Range{FromKey: r.FromKey, ToKey: n.MinKey, FromValue: r.FromValue, RangeValue: r.RangeValue, Time: r.Time}
				right := kv.Range{FromKey: n.MinKey, ToKey: r.ToKey, RangeValue: r.RangeValue, Time: r.Time}

				if !noGaps && cmp(left.FromKey, t.MinKey) < 0 {
					appendGap(KeyValue{K: left.FromKey, V: left})
				} else {
					appendToTarget(ti, KeyValue{K: left.FromKey, V: left})
				}

				queue = append([]Assignable{KeyValue{K: right.FromKey, V: right}}, queue[1:]...)
				ti++
				continue
			}
		}

		if cmp(key, t.MaxKey) > 0 && cmp(key, n.MinKey) < 0 {
			if !noGaps {
				appendGap(a)
				queue = queue[1:]
				continue
			}
			if lastTargetsT(ti) {
				appendToTarget(ti, a)
				queue = queue[1:]
				continue
			}
			ti++
			continue
		}

		ti++
	}

	return entries, nil
}

// belongsByBound reports whether an assignable's high bound still falls
// within a target's inclusive max key. Both Range-exclusive and
// Fixed-inclusive bounds use the same comparison: a Range ending at or
// before maxKey never carries any key past it.
func belongsByBound(boundKey, maxKey []byte, cmp slice.Comparator) bool {
	return cmp(boundKey, maxKey) <= 0
}
