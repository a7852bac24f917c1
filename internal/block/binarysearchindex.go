package block

import (
	"github.com/iamNilotpal/swaydb/pkg/codec"
	"github.com/iamNilotpal/swaydb/pkg/errors"
)

// BinarySearchIndexWriter builds a sorted array of fixed-width
// SortedIndex offsets, one per Add call (spec.md §4.1.3). It does no
// sampling itself; segment.Builder chooses which offsets to add according
// to pkg/options.BlockOptions.BinarySearchIndexDensity.
type BinarySearchIndexWriter struct {
	entryWidth int
	offsets    []int64
}

// NewBinarySearchIndexWriter starts an empty writer. entryWidth is fixed
// (8 bytes) so the reader can bisect with O(1) random access.
func NewBinarySearchIndexWriter() *BinarySearchIndexWriter {
	return &BinarySearchIndexWriter{entryWidth: 8}
}

// Add records one SortedIndex offset. Offsets must be appended in
// ascending key order — the same order the SortedIndex itself was built
// in — since the reader bisects assuming offsets correlate with key order.
func (w *BinarySearchIndexWriter) Add(sortedIndexOffset int64) {
	w.offsets = append(w.offsets, sortedIndexOffset)
}

// Build finalizes the header and payload.
func (w *BinarySearchIndexWriter) Build() (Header, []byte) {
	payload := make([]byte, 0, len(w.offsets)*w.entryWidth)
	for _, off := range w.offsets {
		payload = codec.PutUint64(payload, uint64(off))
	}
	extra := codec.PutUvarint(nil, uint64(len(w.offsets)))
	h := Header{
		Format:         FormatBinarySearchIndex,
		AllocatedBytes: uint32(len(payload)),
		Extra:          extra,
	}
	return h, payload
}

// BinarySearchIndexReader bisects a materialized offset array.
type BinarySearchIndexReader struct {
	count   int
	payload []byte
}

// DecodeBinarySearchIndex parses the Extra header and wraps the payload.
func DecodeBinarySearchIndex(extra, payload []byte) (*BinarySearchIndexReader, error) {
	count, _, err := codec.Uvarint(extra)
	if err != nil {
		return nil, wrapCorrupted(err)
	}
	return &BinarySearchIndexReader{count: int(count), payload: payload}, nil
}

func (r *BinarySearchIndexReader) at(i int) (int64, error) {
	start := i * 8
	if start < 0 || start+8 > len(r.payload) {
		return 0, errors.NewIndexError(nil, errors.ErrorCodeIndexCorrupted, "binary-search index entry out of range").
			WithOperation("search")
	}
	v, err := codec.Uint64(r.payload[start : start+8])
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// Search bisects for an exact key match. fetchKey resolves a SortedIndex
// offset to its key (supplied by the caller, typically backed by a
// SortedIndexReader), since this block stores offsets only, never keys.
func (r *BinarySearchIndexReader) Search(key []byte, fetchKey func(offset int64) ([]byte, error), cmp func(a, b []byte) int) (int64, bool, error) {
	lo, hi := 0, r.count-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		off, err := r.at(mid)
		if err != nil {
			return 0, false, err
		}
		k, err := fetchKey(off)
		if err != nil {
			return 0, false, err
		}
		c := cmp(k, key)
		switch {
		case c == 0:
			return off, true, nil
		case c < 0:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return 0, false, nil
}

// SearchHigher returns the offset of the closest entry with key strictly
// greater than key, or (0, false) if none exists.
func (r *BinarySearchIndexReader) SearchHigher(key []byte, fetchKey func(offset int64) ([]byte, error), cmp func(a, b []byte) int) (int64, bool, error) {
	lo, hi := 0, r.count-1
	result := int64(0)
	found := false
	for lo <= hi {
		mid := lo + (hi-lo)/2
		off, err := r.at(mid)
		if err != nil {
			return 0, false, err
		}
		k, err := fetchKey(off)
		if err != nil {
			return 0, false, err
		}
		if cmp(k, key) > 0 {
			result, found = off, true
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return result, found, nil
}

// SearchLower returns the offset of the closest entry with key strictly
// less than key, or (0, false) if none exists.
func (r *BinarySearchIndexReader) SearchLower(key []byte, fetchKey func(offset int64) ([]byte, error), cmp func(a, b []byte) int) (int64, bool, error) {
	lo, hi := 0, r.count-1
	result := int64(0)
	found := false
	for lo <= hi {
		mid := lo + (hi-lo)/2
		off, err := r.at(mid)
		if err != nil {
			return 0, false, err
		}
		k, err := fetchKey(off)
		if err != nil {
			return 0, false, err
		}
		if cmp(k, key) < 0 {
			result, found = off, true
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return result, found, nil
}
