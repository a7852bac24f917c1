package codec

import (
	"bytes"
	"encoding/binary"
	"sync/atomic"
)

// Time is the monotonically increasing opaque byte sequence attached to
// every mutator. It is the sole tie-breaker during merge: a newer value may
// only displace an older one when its Time compares strictly greater.
type Time [8]byte

// ZeroTime is the smallest possible Time, used as a sentinel for "no time
// assigned yet".
var ZeroTime = Time{}

// NewTime encodes a counter value as big-endian Time, preserving byte-wise
// comparability.
func NewTime(counter uint64) Time {
	var t Time
	binary.BigEndian.PutUint64(t[:], counter)
	return t
}

// Compare returns -1, 0 or 1 as t is less than, equal to, or greater than o.
func (t Time) Compare(o Time) int {
	return bytes.Compare(t[:], o[:])
}

// After reports whether t is strictly greater than o — the only condition
// under which a value stamped with t is allowed to displace one stamped
// with o.
func (t Time) After(o Time) bool {
	return t.Compare(o) > 0
}

// IsZero reports whether t is the zero Time.
func (t Time) IsZero() bool {
	return t == ZeroTime
}

// Bytes returns the raw 8-byte encoding of t.
func (t Time) Bytes() []byte {
	return t[:]
}

// Clock is a process-wide monotonic source of Time values for writers that
// do not supply their own (e.g. tests, single-writer callers).
type Clock struct {
	counter atomic.Uint64
}

// NewClock returns a Clock starting at counter 0; the first Next() call
// returns Time(1) so ZeroTime is never handed out as a real write time.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns a Time strictly greater than any previously returned by this
// Clock.
func (c *Clock) Next() Time {
	return NewTime(c.counter.Add(1))
}
