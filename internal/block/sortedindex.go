package block

import (
	"github.com/iamNilotpal/swaydb/pkg/codec"
	"github.com/iamNilotpal/swaydb/pkg/errors"
	"github.com/iamNilotpal/swaydb/pkg/slice"
)

// Entry is a single sorted-index record: a key, either an inline value or a
// reference into the Values block, the deadline/time needed to reconstruct
// the stored versioned-value, and the indexOffset/nextIndexOffset pair the
// search pipeline and higher/lower traversal navigate by.
type Entry struct {
	Key   []byte
	Value []byte // inline value bytes; empty if ValueOffset/ValueLength is used instead

	ValueOffset int64
	ValueLength int64
	HasValueRef bool

	// IndexOffset is this entry's own byte offset within the SortedIndex
	// block's payload. NextIndexOffset is the following entry's offset, or
	// -1 if this is the last entry (spec.md §4.2, §4.7).
	IndexOffset     int64
	NextIndexOffset int64
}

// SortedIndexWriter accumulates entries in key order and serializes them
// into a single payload. The caller (internal/segment's builder) is
// responsible for presenting entries already sorted; SortedIndexWriter does
// not re-sort.
type SortedIndexWriter struct {
	buf     []byte
	offsets []int64
}

// NewSortedIndexWriter returns an empty writer.
func NewSortedIndexWriter() *SortedIndexWriter {
	return &SortedIndexWriter{}
}

// Append encodes one entry and returns the IndexOffset it was written at.
// Layout per entry: [varint keyLen][key][bool hasValueRef]
// [hasValueRef: varint valueOffset, varint valueLength | else: varint valueLen, value]
// [varint deadlineUnixNano+1 (0 = unset)][8-byte Time].
func (w *SortedIndexWriter) Append(e Entry, deadlineUnixNano int64, deadlineSet bool, t codec.Time) int64 {
	offset := int64(len(w.buf))
	w.offsets = append(w.offsets, offset)

	w.buf = codec.PutUvarint(w.buf, uint64(len(e.Key)))
	w.buf = append(w.buf, e.Key...)

	if e.HasValueRef {
		w.buf = append(w.buf, 1)
		w.buf = codec.PutVarint(w.buf, e.ValueOffset)
		w.buf = codec.PutVarint(w.buf, e.ValueLength)
	} else {
		w.buf = append(w.buf, 0)
		w.buf = codec.PutUvarint(w.buf, uint64(len(e.Value)))
		w.buf = append(w.buf, e.Value...)
	}

	if deadlineSet {
		w.buf = codec.PutVarint(w.buf, deadlineUnixNano+1)
	} else {
		w.buf = codec.PutVarint(w.buf, 0)
	}
	w.buf = append(w.buf, t.Bytes()...)

	return offset
}

// Offsets returns the IndexOffset each Append call was written at, in
// append order.
func (w *SortedIndexWriter) Offsets() []int64 {
	return w.offsets
}

// Payload returns the accumulated, uncompressed block payload.
func (w *SortedIndexWriter) Payload() []byte {
	return w.buf
}

// SortedIndexReader reads entries back out of a materialized payload. It
// holds no cursor state itself; callers track position via IndexOffset,
// matching spec.md §4.2's "start"/"end" hints being plain offsets.
type SortedIndexReader struct {
	payload slice.Slice
	cmp     slice.Comparator
}

// NewSortedIndexReader wraps a decompressed, CRC-verified payload.
func NewSortedIndexReader(payload []byte, cmp slice.Comparator) *SortedIndexReader {
	if cmp == nil {
		cmp = slice.DefaultComparator
	}
	return &SortedIndexReader{payload: slice.Wrap(payload), cmp: cmp}
}

// DecodedEntry is an Entry plus the deadline/time fields decoded from the
// wire and the byte length actually consumed, so callers can compute the
// offset of the following entry.
type DecodedEntry struct {
	Entry
	DeadlineUnixNano int64
	DeadlineSet      bool
	Time             codec.Time
	Consumed         int
}

// ReadAtOK is ReadAt with an extra boolean return: ok is false (and err
// nil) when off is out of the payload's bounds — a clean "no entry here"
// signal distinct from a corrupted decode — so forward scans and
// first/last-entry lookups (segment.OpenRef, SegmentSearcher.Lower) can
// terminate without treating end-of-block as a read failure.
func (r *SortedIndexReader) ReadAtOK(off int64) (DecodedEntry, bool, error) {
	if off < 0 || int(off) >= len(r.payload.Bytes()) {
		return DecodedEntry{}, false, nil
	}
	e, err := r.ReadAt(off)
	if err != nil {
		return DecodedEntry{}, false, err
	}
	return e, true, nil
}

// ReadAt decodes exactly one entry starting at byte offset off within the
// payload.
func (r *SortedIndexReader) ReadAt(off int64) (DecodedEntry, error) {
	buf := r.payload.Bytes()
	if off < 0 || int(off) >= len(buf) {
		return DecodedEntry{}, errors.NewIndexError(nil, errors.ErrorCodeIndexCorrupted, "sorted-index offset out of range").
			WithIndexSize(len(buf))
	}
	cur := buf[off:]
	start := len(cur)

	keyLen, n, err := codec.Uvarint(cur)
	if err != nil {
		return DecodedEntry{}, wrapCorrupted(err)
	}
	cur = cur[n:]
	if uint64(len(cur)) < keyLen {
		return DecodedEntry{}, wrapCorrupted(nil)
	}
	key := cur[:keyLen]
	cur = cur[keyLen:]

	if len(cur) < 1 {
		return DecodedEntry{}, wrapCorrupted(nil)
	}
	hasRef := cur[0] == 1
	cur = cur[1:]

	e := Entry{Key: key, HasValueRef: hasRef, IndexOffset: off}

	if hasRef {
		vOff, n, err := codec.Varint(cur)
		if err != nil {
			return DecodedEntry{}, wrapCorrupted(err)
		}
		cur = cur[n:]
		vLen, n, err := codec.Varint(cur)
		if err != nil {
			return DecodedEntry{}, wrapCorrupted(err)
		}
		cur = cur[n:]
		e.ValueOffset, e.ValueLength = vOff, vLen
	} else {
		vLen, n, err := codec.Uvarint(cur)
		if err != nil {
			return DecodedEntry{}, wrapCorrupted(err)
		}
		cur = cur[n:]
		if uint64(len(cur)) < vLen {
			return DecodedEntry{}, wrapCorrupted(nil)
		}
		e.Value = cur[:vLen]
		cur = cur[vLen:]
	}

	rawDeadline, n, err := codec.Varint(cur)
	if err != nil {
		return DecodedEntry{}, wrapCorrupted(err)
	}
	cur = cur[n:]

	if len(cur) < 8 {
		return DecodedEntry{}, wrapCorrupted(nil)
	}
	var t codec.Time
	copy(t[:], cur[:8])
	cur = cur[8:]

	consumed := start - len(cur)
	next := off + int64(consumed)
	if int(next) >= len(buf) {
		e.NextIndexOffset = -1
	} else {
		e.NextIndexOffset = next
	}

	return DecodedEntry{
		Entry:            e,
		DeadlineUnixNano: rawDeadline - 1,
		DeadlineSet:      rawDeadline != 0,
		Time:             t,
		Consumed:         consumed,
	}, nil
}

func wrapCorrupted(cause error) error {
	return errors.NewIndexError(cause, errors.ErrorCodeIndexCorrupted, "sorted-index entry is malformed")
}

// Search walks forward from start (or the beginning of the payload when
// start < 0) and returns the first entry whose key equals key; it stops as
// soon as the current key exceeds key (spec.md §4.1.1).
func (r *SortedIndexReader) Search(key []byte, start int64) (DecodedEntry, bool, error) {
	off := start
	if off < 0 {
		off = 0
	}
	for int(off) < len(r.payload.Bytes()) && off >= 0 {
		e, err := r.ReadAt(off)
		if err != nil {
			return DecodedEntry{}, false, err
		}
		c := r.cmp(e.Key, key)
		if c == 0 {
			return e, true, nil
		}
		if c > 0 {
			return DecodedEntry{}, false, nil
		}
		off = e.NextIndexOffset
	}
	return DecodedEntry{}, false, nil
}

// SearchSeekOne takes exactly one forward step from start, used when a
// prior index (hash or binary-search) already narrowed the position.
func (r *SortedIndexReader) SearchSeekOne(key []byte, start int64) (DecodedEntry, bool, error) {
	e, err := r.ReadAt(start)
	if err != nil {
		return DecodedEntry{}, false, err
	}
	return e, r.cmp(e.Key, key) == 0, nil
}

// SearchHigherSeekOne returns the first entry with a key strictly greater
// than key, scanning forward from start.
func (r *SortedIndexReader) SearchHigherSeekOne(key []byte, start int64) (DecodedEntry, bool, error) {
	off := start
	if off < 0 {
		off = 0
	}
	for int(off) < len(r.payload.Bytes()) && off >= 0 {
		e, err := r.ReadAt(off)
		if err != nil {
			return DecodedEntry{}, false, err
		}
		if r.cmp(e.Key, key) > 0 {
			return e, true, nil
		}
		off = e.NextIndexOffset
	}
	return DecodedEntry{}, false, nil
}
