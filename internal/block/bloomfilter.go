package block

import (
	"math"

	"github.com/iamNilotpal/swaydb/pkg/codec"
)

// BloomFilter is a standard k-hash bit array. It is only written when a
// Segment has at least the configured minimum number of unique keys
// (spec.md §4.1.4; threshold lives in pkg/options.BlockOptions).
type BloomFilter struct {
	bits    []byte
	numBits uint64
	numHash uint64
}

// NewBloomFilter sizes a filter for expectedKeys entries at the given
// false-positive rate, using the standard optimal-size formulas:
// m = -n*ln(p) / (ln2)^2, k = (m/n)*ln2.
func NewBloomFilter(expectedKeys int, falsePositiveRate float64) *BloomFilter {
	if expectedKeys < 1 {
		expectedKeys = 1
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}
	n := float64(expectedKeys)
	m := math.Ceil(-n * math.Log(falsePositiveRate) / (math.Ln2 * math.Ln2))
	if m < 8 {
		m = 8
	}
	k := math.Round((m / n) * math.Ln2)
	if k < 1 {
		k = 1
	}
	numBits := uint64(m)
	numBytes := (numBits + 7) / 8
	return &BloomFilter{
		bits:    make([]byte, numBytes),
		numBits: numBytes * 8,
		numHash: uint64(k),
	}
}

// slotsFor derives numHash independent bit positions from a single
// Murmur3-x64 hash via double hashing (Kirsch-Mitzenmacher), avoiding
// numHash separate hash computations per key.
func (b *BloomFilter) slotsFor(key []byte, yield func(pos uint64)) {
	hash := codec.HashKey(key)
	h1, h2 := codec.HashPair(hash)
	a, c := uint64(h1), uint64(h2)
	if c == 0 {
		c = 1
	}
	for i := uint64(0); i < b.numHash; i++ {
		yield((a + i*c) % b.numBits)
	}
}

// Add inserts key into the filter.
func (b *BloomFilter) Add(key []byte) {
	b.slotsFor(key, func(pos uint64) {
		b.bits[pos/8] |= 1 << (pos % 8)
	})
}

// MightContain reports whether key may have been inserted. False means
// definitely not inserted; true may be a false positive within the
// configured rate.
func (b *BloomFilter) MightContain(key []byte) bool {
	found := true
	b.slotsFor(key, func(pos uint64) {
		if b.bits[pos/8]&(1<<(pos%8)) == 0 {
			found = false
		}
	})
	return found
}

// Build finalizes the header and payload.
func (b *BloomFilter) Build() (Header, []byte) {
	extra := codec.PutUvarint(nil, b.numBits)
	extra = codec.PutUvarint(extra, b.numHash)
	h := Header{
		Format:         FormatBloomFilter,
		AllocatedBytes: uint32(len(b.bits)),
		Extra:          extra,
	}
	return h, b.bits
}

// DecodeBloomFilter reconstructs a filter from its materialized header and
// payload for read-only MightContain queries.
func DecodeBloomFilter(extra, payload []byte) (*BloomFilter, error) {
	numBits, n, err := codec.Uvarint(extra)
	if err != nil {
		return nil, wrapCorrupted(err)
	}
	extra = extra[n:]
	numHash, _, err := codec.Uvarint(extra)
	if err != nil {
		return nil, wrapCorrupted(err)
	}
	return &BloomFilter{bits: payload, numBits: numBits, numHash: numHash}, nil
}
