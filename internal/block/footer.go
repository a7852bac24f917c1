package block

import "github.com/iamNilotpal/swaydb/pkg/codec"

// Footer is the terminal block of a Segment, recording the scalar
// statistics the Segment caches plus the file location of whichever other
// blocks were written (spec.md §4.1.6, §6.1's "Footer header" layout).
type Footer struct {
	KeyValueCount         int
	BloomFilterItemsCount int
	HasRange              bool
	HasPut                bool
	CreatedInLevel        int

	SortedIndex      BlockHandle
	HashIndex        *BlockHandle // nil if absent
	BinarySearchIndex *BlockHandle
	BloomFilter      *BlockHandle
	Values           *BlockHandle
}

// Build encodes the Footer per spec.md §6.1:
// [varint keyValueCount][varint bloomFilterItemsCount]
// [bool hasRange][bool hasPut][varint createdInLevel]
// [optional varint offsets for each block] — here, block handles
// (offset+length pairs) rather than bare offsets, so a reader never has to
// infer a block's length from the next block's position.
func (f Footer) Build() (Header, []byte) {
	payload := codec.PutUvarint(nil, uint64(f.KeyValueCount))
	payload = codec.PutUvarint(payload, uint64(f.BloomFilterItemsCount))
	payload = appendBool(payload, f.HasRange)
	payload = appendBool(payload, f.HasPut)
	payload = codec.PutUvarint(payload, uint64(f.CreatedInLevel))

	payload = f.SortedIndex.Encode(payload)
	payload = appendOptionalHandle(payload, f.HashIndex)
	payload = appendOptionalHandle(payload, f.BinarySearchIndex)
	payload = appendOptionalHandle(payload, f.BloomFilter)
	payload = appendOptionalHandle(payload, f.Values)

	return Header{Format: FormatFooter, AllocatedBytes: uint32(len(payload))}, payload
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func appendOptionalHandle(buf []byte, h *BlockHandle) []byte {
	if h == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return h.Encode(buf)
}

func readOptionalHandle(buf []byte) (*BlockHandle, int, error) {
	if len(buf) < 1 {
		return nil, 0, wrapCorrupted(nil)
	}
	if buf[0] == 0 {
		return nil, 1, nil
	}
	h, n, err := DecodeBlockHandle(buf[1:])
	if err != nil {
		return nil, 0, err
	}
	return &h, 1 + n, nil
}

// DecodeFooter parses a Footer's payload.
func DecodeFooter(payload []byte) (Footer, error) {
	var f Footer

	kvCount, n, err := codec.Uvarint(payload)
	if err != nil {
		return f, wrapCorrupted(err)
	}
	payload = payload[n:]
	f.KeyValueCount = int(kvCount)

	bloomCount, n, err := codec.Uvarint(payload)
	if err != nil {
		return f, wrapCorrupted(err)
	}
	payload = payload[n:]
	f.BloomFilterItemsCount = int(bloomCount)

	if len(payload) < 2 {
		return f, wrapCorrupted(nil)
	}
	f.HasRange = payload[0] == 1
	f.HasPut = payload[1] == 1
	payload = payload[2:]

	level, n, err := codec.Uvarint(payload)
	if err != nil {
		return f, wrapCorrupted(err)
	}
	payload = payload[n:]
	f.CreatedInLevel = int(level)

	sortedIndex, n, err := DecodeBlockHandle(payload)
	if err != nil {
		return f, wrapCorrupted(err)
	}
	payload = payload[n:]
	f.SortedIndex = sortedIndex

	for _, dst := range []**BlockHandle{&f.HashIndex, &f.BinarySearchIndex, &f.BloomFilter, &f.Values} {
		h, n, err := readOptionalHandle(payload)
		if err != nil {
			return f, wrapCorrupted(err)
		}
		payload = payload[n:]
		*dst = h
	}

	return f, nil
}
