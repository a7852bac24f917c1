package block

import (
	"hash/crc32"

	"github.com/iamNilotpal/swaydb/pkg/codec"
	"github.com/iamNilotpal/swaydb/pkg/errors"
)

// HashIndexFormat distinguishes whether a slot stores a reference into the
// SortedIndex or a full copy of the key alongside its offset.
type HashIndexFormat byte

const (
	HashFormatReference HashIndexFormat = iota
	HashFormatCopyKey
)

// entrySize returns the number of payload bytes one slot occupies,
// excluding the leading zero-sentinel byte.
func entrySize(format HashIndexFormat, largestKeySize int) int {
	switch format {
	case HashFormatCopyKey:
		// [varint keyLen][key][varint offset][crc32].
		return binaryUvarintMaxLen + largestKeySize + binaryVarintMaxLen + 4
	default:
		// [varint offset].
		return binaryVarintMaxLen
	}
}

const (
	binaryUvarintMaxLen = 10
	binaryVarintMaxLen  = 10
)

// HashIndexWriter builds a fixed-size open-addressed table using double
// hashing, per spec.md §4.1.2.
type HashIndexWriter struct {
	format         HashIndexFormat
	maxProbe       int
	largestKeySize int
	slotSize       int // entrySize + 1 sentinel byte
	table          []byte
	slotCount      int

	hit  int
	miss int

	minCRC uint32
	sawCRC bool
}

// NewHashIndexWriter allocates a table sized for expectedKeys entries with
// the given maxProbe and largestKeySize (used only in CopyKey format).
func NewHashIndexWriter(format HashIndexFormat, expectedKeys, maxProbe, largestKeySize int) *HashIndexWriter {
	entry := entrySize(format, largestKeySize)
	slotSize := entry + 1 // +1 sentinel, spec.md §4.1.2
	// sizePerKey heuristic: enough slots that the table stays sparse even
	// under imperfect probing, mirroring the open-question #2 fallback
	// (no injectable allocator; always derive from sizePerKey).
	slotCount := expectedKeys * 2
	if slotCount < 16 {
		slotCount = 16
	}
	return &HashIndexWriter{
		format:         format,
		maxProbe:       maxProbe,
		largestKeySize: largestKeySize,
		slotSize:       slotSize,
		table:          make([]byte, slotCount*slotSize),
		slotCount:      slotCount,
	}
}

// probeSlot returns the slot index of probe p in the double-hashing
// sequence (spec.md §4.1.2): with h1, h2 from codec.HashPair,
// probeHash = (h1 + p*h2) mod (allocated - slotSize), divided by slotSize.
func (w *HashIndexWriter) probeSlot(hash uint64, p int) int {
	h1, h2 := codec.HashPair(hash)
	allocated := uint64(len(w.table))
	denom := allocated - uint64(w.slotSize)
	if denom == 0 {
		denom = 1
	}
	probeHash := (uint64(h1) + uint64(p)*uint64(h2)) % denom
	slot := int(probeHash) / w.slotSize
	return slot
}

// Write places one key -> sortedIndexOffset mapping into the table,
// probing up to maxProbe slots. Returns false if every probed slot was
// occupied (caller should treat this as a miss for statistics purposes,
// matching the source's tolerant behavior of simply not indexing that
// key rather than failing the whole Segment).
func (w *HashIndexWriter) Write(key []byte, sortedIndexOffset int64) bool {
	hash := codec.HashKey(key)
	for p := 0; p < w.maxProbe; p++ {
		slot := w.probeSlot(hash, p)
		start := slot * w.slotSize
		region := w.table[start : start+w.slotSize : start+w.slotSize]
		if allZero(region) {
			w.writeSlot(region, key, sortedIndexOffset)
			w.hit++
			return true
		}
	}
	w.miss++
	return false
}

func (w *HashIndexWriter) writeSlot(region []byte, key []byte, offset int64) {
	// region[0] is the non-zero discriminator byte; readers treat an
	// all-zero region as empty.
	region[0] = 1
	body := region[1:]
	switch w.format {
	case HashFormatCopyKey:
		buf := body[:0]
		buf = codec.PutUvarint(buf, uint64(len(key)))
		buf = append(buf, key...)
		buf = codec.PutVarint(buf, offset)
		crc := crc32.ChecksumIEEE(buf)
		buf = codec.PutUint32(buf, crc)
		copy(body, buf)
		if !w.sawCRC || crc < w.minCRC {
			w.minCRC = crc
			w.sawCRC = true
		}
	default:
		buf := body[:0]
		buf = codec.PutVarint(buf, offset)
		copy(body, buf)
	}
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// Perfect reports whether every written key found a free slot on its first
// probe's worth of attempts, i.e. miss == 0 (spec.md §4.1.2, §8.1).
func (w *HashIndexWriter) Perfect() bool {
	return w.miss == 0
}

// Discard reports whether the built index has too few hits to be worth
// writing, per spec.md §4.1.2's minimumHits threshold.
func (w *HashIndexWriter) Discard(minimumHits int) bool {
	return w.hit < minimumHits
}

// Build finalizes the header and payload for writing to a Segment file.
func (w *HashIndexWriter) Build() (Header, []byte) {
	extra := make([]byte, 0, 32)
	extra = codec.PutUvarint(extra, uint64(w.maxProbe))
	extra = codec.PutUvarint(extra, uint64(w.hit))
	extra = codec.PutUvarint(extra, uint64(w.miss))
	extra = codec.PutUvarint(extra, uint64(w.minCRC))
	extra = codec.PutUvarint(extra, uint64(w.largestKeySize))
	extra = append(extra, byte(w.format))

	h := Header{
		Format:         FormatHashIndex,
		AllocatedBytes: uint32(len(w.table)),
		Extra:          extra,
	}
	return h, w.table
}

// HashIndexReader resolves keys against a materialized table.
type HashIndexReader struct {
	format         HashIndexFormat
	maxProbe       int
	hit            int
	miss           int
	minCRC         uint32
	largestKeySize int
	slotSize       int
	table          []byte
}

// DecodeHashIndex parses the block-specific header fields (Extra) and
// wraps the payload table for reading.
func DecodeHashIndex(extra []byte, table []byte) (*HashIndexReader, error) {
	maxProbe, n, err := codec.Uvarint(extra)
	if err != nil {
		return nil, wrapCorrupted(err)
	}
	extra = extra[n:]
	hit, n, err := codec.Uvarint(extra)
	if err != nil {
		return nil, wrapCorrupted(err)
	}
	extra = extra[n:]
	miss, n, err := codec.Uvarint(extra)
	if err != nil {
		return nil, wrapCorrupted(err)
	}
	extra = extra[n:]
	minCRC, n, err := codec.Uvarint(extra)
	if err != nil {
		return nil, wrapCorrupted(err)
	}
	extra = extra[n:]
	largestKeySize, n, err := codec.Uvarint(extra)
	if err != nil {
		return nil, wrapCorrupted(err)
	}
	extra = extra[n:]
	if len(extra) < 1 {
		return nil, wrapCorrupted(nil)
	}
	format := HashIndexFormat(extra[0])

	return &HashIndexReader{
		format:         format,
		maxProbe:       int(maxProbe),
		hit:            int(hit),
		miss:           int(miss),
		minCRC:         uint32(minCRC),
		largestKeySize: int(largestKeySize),
		slotSize:       entrySize(format, int(largestKeySize)) + 1,
		table:          table,
	}, nil
}

// Perfect mirrors HashIndexWriter.Perfect: true when miss == 0.
func (r *HashIndexReader) Perfect() bool {
	return r.miss == 0
}

func (r *HashIndexReader) probeSlot(hash uint64, p int) int {
	h1, h2 := codec.HashPair(hash)
	allocated := uint64(len(r.table))
	denom := allocated - uint64(r.slotSize)
	if denom == 0 {
		denom = 1
	}
	probeHash := (uint64(h1) + uint64(p)*uint64(h2)) % denom
	return int(probeHash) / r.slotSize
}

// HashIndexResult is what a successful Get resolves to: either a
// SortedIndex offset to confirm (Reference format) or the full key plus
// offset already verified in-place (CopyKey format).
type HashIndexResult struct {
	SortedIndexOffset int64
	Key               []byte // only set in CopyKey format
}

// Get searches the table for key, returning (result, found, error).
// found=false with a nil error means a clean miss (the key is not indexed,
// not that the table is corrupt).
func (r *HashIndexReader) Get(key []byte) (HashIndexResult, bool, error) {
	hash := codec.HashKey(key)
	for p := 0; p < r.maxProbe; p++ {
		slot := r.probeSlot(hash, p)
		start := slot * r.slotSize
		if start < 0 || start+r.slotSize > len(r.table) {
			return HashIndexResult{}, false, errors.NewIndexError(nil, errors.ErrorCodeIndexCorrupted, "hash-index probe out of range").
				WithOperation("Get")
		}
		region := r.table[start : start+r.slotSize]
		if allZero(region) {
			return HashIndexResult{}, false, nil
		}
		body := region[1:]
		switch r.format {
		case HashFormatCopyKey:
			res, ok, err := r.readCopyKeySlot(body, key)
			if err != nil {
				return HashIndexResult{}, false, err
			}
			if ok {
				return res, true, nil
			}
			// collision on this slot for a different key: keep probing.
		default:
			off, _, err := codec.Varint(body)
			if err != nil {
				return HashIndexResult{}, false, wrapCorrupted(err)
			}
			return HashIndexResult{SortedIndexOffset: off}, true, nil
		}
	}
	return HashIndexResult{}, false, nil
}

func (r *HashIndexReader) readCopyKeySlot(body, wantKey []byte) (HashIndexResult, bool, error) {
	keyLen, n, err := codec.Uvarint(body)
	if err != nil {
		return HashIndexResult{}, false, wrapCorrupted(err)
	}
	body = body[n:]
	if uint64(len(body)) < keyLen {
		return HashIndexResult{}, false, wrapCorrupted(nil)
	}
	gotKey := body[:keyLen]
	body = body[keyLen:]

	off, n, err := codec.Varint(body)
	if err != nil {
		return HashIndexResult{}, false, wrapCorrupted(err)
	}
	body = body[n:]

	if len(body) < 4 {
		return HashIndexResult{}, false, wrapCorrupted(nil)
	}
	wantCRC, err := codec.Uint32(body)
	if err != nil {
		return HashIndexResult{}, false, wrapCorrupted(err)
	}
	if wantCRC < r.minCRC {
		return HashIndexResult{}, false, errors.NewIndexError(nil, errors.ErrorCodeIndexCorrupted, "hash-index CopyKey entry CRC below the header's minimum observed CRC").
			WithOperation("Get")
	}
	if crc32.ChecksumIEEE(encodeCopyKeyBody(gotKey, off)) != wantCRC {
		return HashIndexResult{}, false, errors.NewIndexError(nil, errors.ErrorCodeIndexCorrupted, "hash-index CopyKey entry failed CRC check").
			WithOperation("Get")
	}

	if string(gotKey) != string(wantKey) {
		return HashIndexResult{}, false, nil
	}
	return HashIndexResult{SortedIndexOffset: off, Key: gotKey}, true, nil
}

func encodeCopyKeyBody(key []byte, offset int64) []byte {
	buf := make([]byte, 0, len(key)+16)
	buf = codec.PutUvarint(buf, uint64(len(key)))
	buf = append(buf, key...)
	buf = codec.PutVarint(buf, offset)
	return buf
}
