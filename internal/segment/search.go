package segment

import (
	"github.com/iamNilotpal/swaydb/internal/block"
	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/iamNilotpal/swaydb/pkg/errors"
	"github.com/iamNilotpal/swaydb/pkg/slice"
)

// Searcher is SegmentSearcher: the per-Segment point/range lookup pipeline.
// It tries the cheapest index first — bloom filter short-circuit, then
// HashIndex (trusting a Perfect table's miss outright), then
// BinarySearchIndex bisection, falling back to a forward SortedIndex scan
// only when neither secondary index is present.
type Searcher struct {
	ref *SegmentRef
	cmp slice.Comparator
}

// NewSearcher returns a Searcher over ref using cmp to order keys.
func NewSearcher(ref *SegmentRef, cmp slice.Comparator) *Searcher {
	if cmp == nil {
		cmp = slice.DefaultComparator
	}
	return &Searcher{ref: ref, cmp: cmp}
}

// Get resolves key to its SortedIndex entry, or (zero, false, nil) on a
// confirmed miss.
func (s *Searcher) Get(key []byte) (block.DecodedEntry, bool, error) {
	cache := s.ref.BlockCache()

	if bloom, ok, err := cache.GetBloomFilter(); err != nil {
		return block.DecodedEntry{}, false, err
	} else if ok && !bloom.MightContain(key) {
		return block.DecodedEntry{}, false, nil
	}

	sortedIndex, err := cache.GetSortedIndex(s.cmp)
	if err != nil {
		return block.DecodedEntry{}, false, err
	}

	if hashIndex, ok, err := cache.GetHashIndex(); err != nil {
		return block.DecodedEntry{}, false, err
	} else if ok {
		res, found, err := hashIndex.Get(key)
		if err != nil {
			return block.DecodedEntry{}, false, err
		}
		if found {
			entry, ok, err := sortedIndex.ReadAtOK(res.SortedIndexOffset)
			if err != nil {
				return block.DecodedEntry{}, false, err
			}
			if ok && s.cmp(entry.Key, key) == 0 {
				return entry, true, nil
			}
			// Reference-format slots hold no key, so the first occupied
			// slot on the probe path can belong to a colliding key that
			// pushed key to a later probe: fall through as for a miss.
		} else if hashIndex.Perfect() {
			return block.DecodedEntry{}, false, nil
		}
		// An imperfect table's miss never proves absence: fall through to
		// a secondary index or the linear scan.
	}

	if bsi, ok, err := cache.GetBinarySearchIndex(); err != nil {
		return block.DecodedEntry{}, false, err
	} else if ok {
		off, found, err := bsi.Search(key, s.fetchKey(sortedIndex), s.cmp)
		if err != nil {
			return block.DecodedEntry{}, false, err
		}
		if !found {
			return block.DecodedEntry{}, false, nil
		}
		return sortedIndex.ReadAtOK(off)
	}

	return sortedIndex.Search(key, 0)
}

// Higher returns the entry with the smallest key strictly greater than
// key, using the BinarySearchIndex when available, else a linear scan.
func (s *Searcher) Higher(key []byte) (block.DecodedEntry, bool, error) {
	cache := s.ref.BlockCache()
	sortedIndex, err := cache.GetSortedIndex(s.cmp)
	if err != nil {
		return block.DecodedEntry{}, false, err
	}

	if bsi, ok, err := cache.GetBinarySearchIndex(); err != nil {
		return block.DecodedEntry{}, false, err
	} else if ok {
		off, found, err := bsi.SearchHigher(key, s.fetchKey(sortedIndex), s.cmp)
		if err != nil {
			return block.DecodedEntry{}, false, err
		}
		if !found {
			return block.DecodedEntry{}, false, nil
		}
		return sortedIndex.ReadAtOK(off)
	}
	return sortedIndex.SearchHigherSeekOne(key, 0)
}

// Lower returns the entry with the greatest key strictly less than key.
func (s *Searcher) Lower(key []byte) (block.DecodedEntry, bool, error) {
	cache := s.ref.BlockCache()
	sortedIndex, err := cache.GetSortedIndex(s.cmp)
	if err != nil {
		return block.DecodedEntry{}, false, err
	}

	if bsi, ok, err := cache.GetBinarySearchIndex(); err != nil {
		return block.DecodedEntry{}, false, err
	} else if ok {
		off, found, err := bsi.SearchLower(key, s.fetchKey(sortedIndex), s.cmp)
		if err != nil {
			return block.DecodedEntry{}, false, err
		}
		if !found {
			return block.DecodedEntry{}, false, nil
		}
		return sortedIndex.ReadAtOK(off)
	}

	// No BinarySearchIndex: scan forward, remembering the last entry whose
	// key is still below key.
	var last block.DecodedEntry
	var haveLast bool
	off := int64(0)
	for {
		e, ok, err := sortedIndex.ReadAtOK(off)
		if err != nil {
			return block.DecodedEntry{}, false, err
		}
		if !ok || s.cmp(e.Key, key) >= 0 {
			break
		}
		last, haveLast = e, true
		off = e.NextIndexOffset
		if off == -1 {
			break
		}
	}
	return last, haveLast, nil
}

func (s *Searcher) fetchKey(sortedIndex *block.SortedIndexReader) func(int64) ([]byte, error) {
	return func(off int64) ([]byte, error) {
		e, _, err := sortedIndex.ReadAtOK(off)
		if err != nil {
			return nil, err
		}
		return e.Key, nil
	}
}

// Decode resolves a DecodedEntry's value bytes (inline, or via the
// Segment's optional Values block, spec.md §4.1.5) and reconstructs the
// full versioned-value it encodes (spec.md §6.1's per-entry payload shape,
// internal/kv.Decode).
func (s *Searcher) Decode(e block.DecodedEntry) (kv.Value, error) {
	payload := e.Value
	if e.HasValueRef {
		values, ok, err := s.ref.BlockCache().GetValues()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NewStorageError(nil, errors.ErrorCodeSegmentCorrupted, "entry references the values block but the segment has none")
		}
		payload, err = values.Get(e.ValueOffset, e.ValueLength)
		if err != nil {
			return nil, err
		}
	}
	deadline := kv.DeadlineFromUnixNano(e.DeadlineUnixNano, e.DeadlineSet)
	return kv.Decode(payload, deadline, e.Time)
}

// GetValue resolves key to its fully-decoded versioned-value, consulting
// the Segment's shared key-value cache before falling back to the
// block-layer search pipeline (spec.md §4.2's "every raw hit is added to
// the SegmentRef's per-segment concurrent skiplist" rule).
func (s *Searcher) GetValue(key []byte) (kv.Value, bool, error) {
	if cached, ok := s.ref.KVCache().Get(key); ok {
		return cached, true, nil
	}
	entry, found, err := s.Get(key)
	if err != nil || !found {
		return nil, false, err
	}
	v, err := s.Decode(entry)
	if err != nil {
		return nil, false, err
	}
	stored, _ := s.ref.KVCache().PutIfAbsent(key, v)
	return stored, true, nil
}

// HigherValue/LowerValue are GetValue's counterparts for the traversal
// algorithm's higher/lower operations (spec.md §4.7); they do not consult
// the KVCache since its ordering would need a fresh comparison against
// key on every call regardless.
func (s *Searcher) HigherValue(key []byte) (foundKey []byte, value kv.Value, ok bool, err error) {
	e, found, err := s.Higher(key)
	if err != nil || !found {
		return nil, nil, false, err
	}
	v, err := s.Decode(e)
	if err != nil {
		return nil, nil, false, err
	}
	return e.Key, v, true, nil
}

func (s *Searcher) LowerValue(key []byte) (foundKey []byte, value kv.Value, ok bool, err error) {
	e, found, err := s.Lower(key)
	if err != nil || !found {
		return nil, nil, false, err
	}
	v, err := s.Decode(e)
	if err != nil {
		return nil, nil, false, err
	}
	return e.Key, v, true, nil
}
