// Package slice provides Slice, the universal key/value carrier used
// throughout the storage engine: a []byte paired with a from/to window so
// callers can reslice a shared backing array without copying.
package slice

import "bytes"

// Slice is an ordered byte buffer with a from/to view over a backing array.
// Taking a sub-slice never copies bytes; it only narrows From/To.
type Slice struct {
	data []byte
	from int
	to   int // exclusive
}

// Wrap creates a Slice covering the whole of data. data is not copied.
func Wrap(data []byte) Slice {
	return Slice{data: data, from: 0, to: len(data)}
}

// New allocates a Slice backed by a fresh zeroed buffer of size n.
func New(n int) Slice {
	return Slice{data: make([]byte, n), from: 0, to: n}
}

// Bytes returns the byte range covered by the current view.
func (s Slice) Bytes() []byte {
	return s.data[s.from:s.to]
}

// Len returns the number of bytes in the current view.
func (s Slice) Len() int {
	return s.to - s.from
}

// IsEmpty reports whether the current view is empty.
func (s Slice) IsEmpty() bool {
	return s.Len() == 0
}

// Slice returns a new view over [from, to) of the current view, without
// copying the backing array. Panics if the range is out of bounds, matching
// the behavior of a plain []byte reslice.
func (s Slice) Slice(from, to int) Slice {
	if from < 0 || to > s.Len() || from > to {
		panic("slice: index out of range")
	}
	return Slice{data: s.data, from: s.from + from, to: s.from + to}
}

// Take returns a view over the first n bytes of the current view.
func (s Slice) Take(n int) Slice {
	return s.Slice(0, n)
}

// Drop returns a view over the current view with the first n bytes removed.
func (s Slice) Drop(n int) Slice {
	return s.Slice(n, s.Len())
}

// Copy returns a Slice backed by a freshly allocated array holding a copy
// of the current view's bytes. Used when a view must outlive its backing
// file-read buffer.
func (s Slice) Copy() Slice {
	cp := make([]byte, s.Len())
	copy(cp, s.Bytes())
	return Wrap(cp)
}

// Compare orders two Slices by their byte contents, matching bytes.Compare.
func Compare(a, b Slice) int {
	return bytes.Compare(a.Bytes(), b.Bytes())
}

// Equal reports whether a and b cover identical byte contents.
func Equal(a, b Slice) bool {
	return bytes.Equal(a.Bytes(), b.Bytes())
}

// Comparator orders two key or value byte sequences. The default is
// lexicographic (bytes.Compare); callers may supply a custom total order.
type Comparator func(a, b []byte) int

// DefaultComparator is the lexicographic byte-wise comparator used when a
// caller does not supply one.
func DefaultComparator(a, b []byte) int {
	return bytes.Compare(a, b)
}
