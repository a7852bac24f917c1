// Package kv defines the versioned-value algebra: the tagged union of
// mutators a key's entry can hold (Put, Remove, Update, Function,
// PendingApply, Range) plus the Key/Deadline/Time types they share.
package kv

import (
	"time"

	"github.com/iamNilotpal/swaydb/pkg/codec"
)

// Key is an immutable byte sequence with total ordering defined by a
// Comparator (default lexicographic).
type Key = []byte

// Deadline is an optional absolute expiry instant. A nil Deadline means no
// expiry. A key-value whose Deadline is in the past is logically absent.
type Deadline struct {
	at *time.Time
}

// NoDeadline is the zero value: no expiry.
var NoDeadline = Deadline{}

// NewDeadline returns a Deadline expiring at t.
func NewDeadline(t time.Time) Deadline {
	return Deadline{at: &t}
}

// IsSet reports whether a deadline was supplied.
func (d Deadline) IsSet() bool {
	return d.at != nil
}

// IsExpired reports whether the deadline has passed as of now.
func (d Deadline) IsExpired(now time.Time) bool {
	return d.at != nil && d.at.Before(now)
}

// Time returns the underlying expiry instant and whether one is set.
func (d Deadline) Time() (time.Time, bool) {
	if d.at == nil {
		return time.Time{}, false
	}
	return *d.at, true
}

// DeadlineFromUnixNano reconstructs a Deadline from the raw
// (unixNano, set) pair a SortedIndex entry stores it as on the wire.
func DeadlineFromUnixNano(unixNano int64, set bool) Deadline {
	if !set {
		return NoDeadline
	}
	return NewDeadline(time.Unix(0, unixNano))
}

// Earlier returns whichever of d, o expires first. An unset Deadline never
// wins — it is treated as "no limit" and loses to any set deadline.
func Earlier(d, o Deadline) Deadline {
	switch {
	case !d.IsSet():
		return o
	case !o.IsSet():
		return d
	}
	dt, _ := d.Time()
	ot, _ := o.Time()
	if dt.Before(ot) {
		return d
	}
	return o
}

// Time is re-exported for callers that only import internal/kv.
type Time = codec.Time

// Value is the tagged-union interface implemented by every versioned-value
// variant. Kind identifies the concrete variant for Merger dispatch; Stamp
// returns the variant's write Time, the sole tie-breaker for merges.
type Value interface {
	Kind() Kind
	Stamp() Time
}

// Kind discriminates the concrete Value variant without a type switch at
// every call site.
type Kind uint8

const (
	KindPut Kind = iota
	KindRemove
	KindUpdate
	KindFunction
	KindPendingApply
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindPut:
		return "Put"
	case KindRemove:
		return "Remove"
	case KindUpdate:
		return "Update"
	case KindFunction:
		return "Function"
	case KindPendingApply:
		return "PendingApply"
	case KindRange:
		return "Range"
	default:
		return "Unknown"
	}
}

// Put represents the key being present with Value until Deadline (if set).
type Put struct {
	Value    []byte
	Deadline Deadline
	Time     Time
}

func (Put) Kind() Kind      { return KindPut }
func (p Put) Stamp() Time   { return p.Time }

// Remove represents deletion. A set Deadline makes it a timed tombstone
// that itself expires (after which the key is simply absent again).
type Remove struct {
	Deadline Deadline
	Time     Time
}

func (Remove) Kind() Kind    { return KindRemove }
func (r Remove) Stamp() Time { return r.Time }

// Update overwrites Value if the key exists in a lower level; otherwise it
// is degenerate (has no effect).
type Update struct {
	Value    []byte
	Deadline Deadline
	Time     Time
}

func (Update) Kind() Kind    { return KindUpdate }
func (u Update) Stamp() Time { return u.Time }

// Function applies a registered mutator (by FnID) to the effective
// lower-level value.
type Function struct {
	FnID string
	Time Time
}

func (Function) Kind() Kind   { return KindFunction }
func (f Function) Stamp() Time { return f.Time }

// PendingApply holds a deferred merge chain, stashed when the Merger cannot
// locally determine the effective result. Applies is non-empty and every
// element is itself an Update, Remove, or Function.
type PendingApply struct {
	Applies []Value
	Time    Time
}

func (PendingApply) Kind() Kind    { return KindPendingApply }
func (p PendingApply) Stamp() Time { return p.Time }

// Range applies RangeValue to every key in [FromKey, ToKey). FromValue, if
// set, is the fixed value the range's FromKey itself resolves to (used when
// a fixed entry is absorbed into a range during LevelZero splitting).
type Range struct {
	FromKey   []byte
	ToKey     []byte
	FromValue Value // nil unless a fixed key was folded into this range
	RangeValue Value
	Time      Time
}

func (Range) Kind() Kind    { return KindRange }
func (r Range) Stamp() Time { return r.Time }

// Contains reports whether key falls in the Range's half-open interval
// [FromKey, ToKey), using cmp for ordering.
func (r Range) Contains(key []byte, cmp func(a, b []byte) int) bool {
	return cmp(key, r.FromKey) >= 0 && cmp(key, r.ToKey) < 0
}
