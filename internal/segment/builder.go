package segment

import (
	"github.com/iamNilotpal/swaydb/internal/block"
	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/iamNilotpal/swaydb/pkg/options"
	"github.com/iamNilotpal/swaydb/pkg/slice"
)

// Builder assembles a Transient Segment: it accepts key-values in
// ascending key order and, on Build, produces the complete on-disk byte
// image (SortedIndex + optional HashIndex/BinarySearchIndex/BloomFilter +
// Footer, each wrapped in the shared block envelope) plus the Footer
// describing it, ready to be written to a file and later opened via
// OpenRef (spec.md §4.6/§4.1).
type Builder struct {
	blockOpts options.BlockOptions
	comp      block.Compressor

	sortedIndex  *block.SortedIndexWriter
	hashIndex    *block.HashIndexWriter
	binarySearch *block.BinarySearchIndexWriter
	bloom        *block.BloomFilter

	createdInLevel int
	count          int
	hasRange       bool
	hasPut         bool
	binDensityStep int
	sinceLastBin   int
}

// NewBuilder returns an empty Builder. expectedKeys and largestKeySize
// size the optional HashIndex/BloomFilter blocks up front, the same
// two-pass-free sizing the teacher's options-driven block construction
// expects the caller to supply from the flush/defrag batch it already has
// in hand.
func NewBuilder(blockOpts options.BlockOptions, createdInLevel, expectedKeys, largestKeySize int) *Builder {
	b := &Builder{blockOpts: blockOpts, sortedIndex: block.NewSortedIndexWriter()}

	if blockOpts.CompressionEnabled {
		b.comp = block.SnappyCompressor{}
	}
	if blockOpts.HashIndexEnabled && expectedKeys > 0 {
		b.hashIndex = block.NewHashIndexWriter(block.HashFormatReference, expectedKeys, blockOpts.HashIndexMaxProbe, largestKeySize)
	}
	if blockOpts.BinarySearchIndexEnabled {
		b.binarySearch = block.NewBinarySearchIndexWriter()
		step := 1
		if blockOpts.BinarySearchIndexDensity > 0 && blockOpts.BinarySearchIndexDensity < 1 {
			step = int(1.0 / blockOpts.BinarySearchIndexDensity)
			if step < 1 {
				step = 1
			}
		}
		b.binDensityStep = step
	}
	if blockOpts.BloomFilterEnabled && expectedKeys >= blockOpts.BloomFilterMinimumKeys && expectedKeys > 0 {
		b.bloom = block.NewBloomFilter(expectedKeys, blockOpts.BloomFilterFalsePositive)
	}

	b.createdInLevel = createdInLevel
	return b
}

// Append encodes one key-value into the Segment being built. Callers must
// present keys in ascending order; Builder does not re-sort.
func (b *Builder) Append(key []byte, value kv.Value) error {
	payload, deadline, t := kv.Encode(value)

	deadlineUnixNano := int64(0)
	deadlineSet := deadline.IsSet()
	if deadlineSet {
		tm, _ := deadline.Time()
		deadlineUnixNano = tm.UnixNano()
	}

	entry := block.Entry{Key: key, Value: payload}
	off := b.sortedIndex.Append(entry, deadlineUnixNano, deadlineSet, t)

	if b.hashIndex != nil {
		b.hashIndex.Write(key, off)
	}
	if b.binarySearch != nil {
		if b.sinceLastBin == 0 {
			b.binarySearch.Add(off)
		}
		b.sinceLastBin = (b.sinceLastBin + 1) % b.binDensityStep
	}
	if b.bloom != nil {
		b.bloom.Add(key)
	}

	b.count++
	switch value.Kind() {
	case kv.KindRange:
		b.hasRange = true
	case kv.KindPut:
		b.hasPut = true
	}
	return nil
}

// Build finalizes every enabled block, writes them in sequence, and
// returns the full Segment byte image together with its Footer. The image
// already ends with the Footer block and the fixed-width trailer pointing
// at it (spec.md §6.1's on-disk layout: blocks, Footer, then the trailer).
func (b *Builder) Build() ([]byte, block.Footer, error) {
	var buf []byte

	sortedHandle := b.writeBlock(&buf, block.Header{Format: block.FormatSortedIndex}, b.sortedIndex.Payload())

	footer := block.Footer{
		KeyValueCount:  b.count,
		HasRange:       b.hasRange,
		HasPut:         b.hasPut,
		SortedIndex:    sortedHandle,
		CreatedInLevel: b.createdInLevel,
	}

	if b.hashIndex != nil && !b.hashIndex.Discard(b.blockOpts.HashIndexMinimumHits) {
		hdr, payload := b.hashIndex.Build()
		handle := b.writeBlock(&buf, hdr, payload)
		footer.HashIndex = &handle
	}
	if b.binarySearch != nil {
		hdr, payload := b.binarySearch.Build()
		handle := b.writeBlock(&buf, hdr, payload)
		footer.BinarySearchIndex = &handle
	}
	if b.bloom != nil {
		footer.BloomFilterItemsCount = b.count
		hdr, payload := b.bloom.Build()
		handle := b.writeBlock(&buf, hdr, payload)
		footer.BloomFilter = &handle
	}

	footerHdr, footerPayload := footer.Build()
	footerHandle := b.writeBlock(&buf, footerHdr, footerPayload)
	buf = append(buf, EncodeFooterTrailer(footerHandle)...)

	return buf, footer, nil
}

func (b *Builder) writeBlock(buf *[]byte, hdr block.Header, payload []byte) block.BlockHandle {
	wrapped := block.WrapPayload(payload, b.comp)
	if b.comp != nil {
		hdr.Compression = b.comp.ID()
	}
	hdr.AllocatedBytes = uint32(len(wrapped))

	offset := int64(len(*buf))
	*buf = append(*buf, hdr.Encode()...)
	*buf = append(*buf, wrapped...)
	return block.BlockHandle{Offset: offset, Length: int64(len(*buf)) - offset}
}

// Cmp is the default comparator Build's consumers should pass back to
// OpenRef/NewSearcher when opening the freshly-built Segment.
func Cmp() slice.Comparator { return slice.DefaultComparator }
