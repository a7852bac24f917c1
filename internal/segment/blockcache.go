// Package segment implements the persistent Segment: its block cache, its
// per-Segment key-value skiplist, container (many-child) Segments, the
// search pipeline over the block layer, and per-thread read state.
package segment

import (
	"io"
	"sync"

	"github.com/iamNilotpal/swaydb/internal/block"
	"github.com/iamNilotpal/swaydb/pkg/errors"
	"github.com/iamNilotpal/swaydb/pkg/slice"
	"golang.org/x/sync/singleflight"
)

// BlockKind identifies which block a SegmentBlockCache slot holds.
type BlockKind int

const (
	BlockSortedIndex BlockKind = iota
	BlockHashIndex
	BlockBinarySearchIndex
	BlockBloomFilter
	BlockValues
)

func (k BlockKind) String() string {
	switch k {
	case BlockSortedIndex:
		return "sorted-index"
	case BlockHashIndex:
		return "hash-index"
	case BlockBinarySearchIndex:
		return "binary-search-index"
	case BlockBloomFilter:
		return "bloom-filter"
	case BlockValues:
		return "values"
	default:
		return "unknown"
	}
}

// MemorySweeper is the external collaborator spec.md §6.3/§5 describes: it
// is notified on a winning block-reader materialization (or skiplist
// insert) so it can account the new entry against its eviction budget.
type MemorySweeper func(sizeBytes int, kind string)

// SegmentBlockCache lazily materializes block readers from a backing
// io.ReaderAt, guaranteeing at-most-one initialization per (Segment,
// BlockKind) via golang.org/x/sync/singleflight — the same
// single-flighting idiom the pack uses to dedupe concurrent fetches of the
// same cache key (avogabo-EDRmount's rawfs.go / segments.go).
type SegmentBlockCache struct {
	file    io.ReaderAt
	footer  block.Footer
	comp    block.Compressor
	sweeper MemorySweeper

	mu           sync.RWMutex
	sortedIndex  *block.SortedIndexReader
	hashIndex    *block.HashIndexReader
	binarySearch *block.BinarySearchIndexReader
	bloom        *block.BloomFilter
	values       *block.ValuesReader

	group singleflight.Group
}

// NewSegmentBlockCache wraps file, whose Footer has already been read by
// the caller (the Segment opener, which locates and decodes the trailing
// Footer block to learn every other block's BlockHandle).
func NewSegmentBlockCache(file io.ReaderAt, footer block.Footer, comp block.Compressor, sweeper MemorySweeper) *SegmentBlockCache {
	if sweeper == nil {
		sweeper = func(int, string) {}
	}
	return &SegmentBlockCache{file: file, footer: footer, comp: comp, sweeper: sweeper}
}

// readHandle reads the full encoded block at h and splits it into its
// decoded Header plus the bytes following the fixed 6-byte envelope
// (block-specific extra header bytes followed by the wrapped payload).
func (c *SegmentBlockCache) readHandle(h block.BlockHandle) (block.Header, []byte, error) {
	buf := make([]byte, h.Length)
	if _, err := c.file.ReadAt(buf, h.Offset); err != nil && err != io.EOF {
		return block.Header{}, nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read block").
			WithOffset(int(h.Offset))
	}
	hdr, rest, err := block.DecodeHeader(buf)
	if err != nil {
		return block.Header{}, nil, err
	}
	return hdr, rest, nil
}

func (c *SegmentBlockCache) compressorFor(hdr block.Header) block.Compressor {
	if hdr.Compression == block.CompressionNone {
		return nil
	}
	return c.comp
}

// GetSortedIndex returns the cached SortedIndexReader, materializing it on
// first access.
func (c *SegmentBlockCache) GetSortedIndex(cmp slice.Comparator) (*block.SortedIndexReader, error) {
	v, err := c.getOrInit(BlockSortedIndex,
		func() (any, error) {
			hdr, rest, err := c.readHandle(c.footer.SortedIndex)
			if err != nil {
				return nil, err
			}
			payload, err := block.UnwrapPayload(rest, c.compressorFor(hdr))
			if err != nil {
				return nil, err
			}
			return block.NewSortedIndexReader(payload, cmp), nil
		},
		func() (any, bool) {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return c.sortedIndex, c.sortedIndex != nil
		},
		func(v any) { c.mu.Lock(); c.sortedIndex = v.(*block.SortedIndexReader); c.mu.Unlock() },
	)
	if err != nil {
		return nil, err
	}
	return v.(*block.SortedIndexReader), nil
}

// GetHashIndex returns the cached HashIndexReader, or (nil, false, nil) if
// the Segment has no hash index.
func (c *SegmentBlockCache) GetHashIndex() (*block.HashIndexReader, bool, error) {
	if c.footer.HashIndex == nil {
		return nil, false, nil
	}
	handle := *c.footer.HashIndex
	v, err := c.getOrInit(BlockHashIndex,
		func() (any, error) {
			hdr, rest, err := c.readHandle(handle)
			if err != nil {
				return nil, err
			}
			return decodeHashIndexFromEnvelope(rest, c.compressorFor(hdr))
		},
		func() (any, bool) {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return c.hashIndex, c.hashIndex != nil
		},
		func(v any) { c.mu.Lock(); c.hashIndex = v.(*block.HashIndexReader); c.mu.Unlock() },
	)
	if err != nil {
		return nil, false, err
	}
	return v.(*block.HashIndexReader), true, nil
}

// GetBinarySearchIndex returns the cached BinarySearchIndexReader, or
// (nil, false, nil) if the Segment has no binary-search index.
func (c *SegmentBlockCache) GetBinarySearchIndex() (*block.BinarySearchIndexReader, bool, error) {
	if c.footer.BinarySearchIndex == nil {
		return nil, false, nil
	}
	handle := *c.footer.BinarySearchIndex
	v, err := c.getOrInit(BlockBinarySearchIndex,
		func() (any, error) {
			hdr, rest, err := c.readHandle(handle)
			if err != nil {
				return nil, err
			}
			count, n, perr := peekUvarint(rest)
			if perr != nil {
				return nil, perr
			}
			extra := rest[:n]
			wrapped := rest[n:]
			payload, err := block.UnwrapPayload(wrapped, c.compressorFor(hdr))
			if err != nil {
				return nil, err
			}
			_ = count
			return block.DecodeBinarySearchIndex(extra, payload)
		},
		func() (any, bool) {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return c.binarySearch, c.binarySearch != nil
		},
		func(v any) { c.mu.Lock(); c.binarySearch = v.(*block.BinarySearchIndexReader); c.mu.Unlock() },
	)
	if err != nil {
		return nil, false, err
	}
	return v.(*block.BinarySearchIndexReader), true, nil
}

// GetBloomFilter returns the cached BloomFilter, or (nil, false, nil) if
// the Segment has none.
func (c *SegmentBlockCache) GetBloomFilter() (*block.BloomFilter, bool, error) {
	if c.footer.BloomFilter == nil {
		return nil, false, nil
	}
	handle := *c.footer.BloomFilter
	v, err := c.getOrInit(BlockBloomFilter,
		func() (any, error) {
			hdr, rest, err := c.readHandle(handle)
			if err != nil {
				return nil, err
			}
			_, n1, err := peekUvarint(rest)
			if err != nil {
				return nil, err
			}
			_, n2, err := peekUvarint(rest[n1:])
			if err != nil {
				return nil, err
			}
			extra := rest[:n1+n2]
			wrapped := rest[n1+n2:]
			payload, err := block.UnwrapPayload(wrapped, c.compressorFor(hdr))
			if err != nil {
				return nil, err
			}
			return block.DecodeBloomFilter(extra, payload)
		},
		func() (any, bool) {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return c.bloom, c.bloom != nil
		},
		func(v any) { c.mu.Lock(); c.bloom = v.(*block.BloomFilter); c.mu.Unlock() },
	)
	if err != nil {
		return nil, false, err
	}
	return v.(*block.BloomFilter), true, nil
}

// GetValues returns the cached ValuesReader, or (nil, false, nil) if the
// Segment inlines all values in its SortedIndex.
func (c *SegmentBlockCache) GetValues() (*block.ValuesReader, bool, error) {
	if c.footer.Values == nil {
		return nil, false, nil
	}
	handle := *c.footer.Values
	v, err := c.getOrInit(BlockValues,
		func() (any, error) {
			hdr, rest, err := c.readHandle(handle)
			if err != nil {
				return nil, err
			}
			payload, err := block.UnwrapPayload(rest, c.compressorFor(hdr))
			if err != nil {
				return nil, err
			}
			return block.DecodeValues(payload), nil
		},
		func() (any, bool) {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return c.values, c.values != nil
		},
		func(v any) { c.mu.Lock(); c.values = v.(*block.ValuesReader); c.mu.Unlock() },
	)
	if err != nil {
		return nil, false, err
	}
	return v.(*block.ValuesReader), true, nil
}

// getOrInit is the generic one-shot-per-slot pattern described in spec.md
// §9's "Lazy block readers" design note: check under RLock first, and
// otherwise single-flight the load so concurrent callers for the same
// block collapse into a single disk read.
func (c *SegmentBlockCache) getOrInit(kind BlockKind, load func() (any, error), peek func() (any, bool), store func(any)) (any, error) {
	if v, ok := peek(); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(kind.String(), func() (any, error) {
		if v, ok := peek(); ok {
			return v, nil
		}
		loaded, err := load()
		if err != nil {
			return nil, err
		}
		store(loaded)
		c.sweeper(0, kind.String())
		return loaded, nil
	})
	return v, err
}

// decodeHashIndexFromEnvelope parses the HashIndex's own extra header
// fields (self-delimiting varints) directly out of the block envelope,
// then unwraps the remaining bytes as the wrapped payload table.
func decodeHashIndexFromEnvelope(rest []byte, comp block.Compressor) (*block.HashIndexReader, error) {
	consumed := 0
	for i := 0; i < 5; i++ {
		_, n, err := peekUvarint(rest[consumed:])
		if err != nil {
			return nil, err
		}
		consumed += n
	}
	consumed++ // trailing format byte
	if consumed > len(rest) {
		return nil, errors.NewStorageError(nil, errors.ErrorCodeHeaderReadFailure, "hash-index extra header truncated")
	}
	extra := rest[:consumed]
	wrapped := rest[consumed:]
	payload, err := block.UnwrapPayload(wrapped, comp)
	if err != nil {
		return nil, err
	}
	return block.DecodeHashIndex(extra, payload)
}

func peekUvarint(buf []byte) (uint64, int, error) {
	v, n := peekUvarintRaw(buf)
	if n <= 0 {
		return 0, 0, errors.NewStorageError(nil, errors.ErrorCodeHeaderReadFailure, "truncated varint in block extra header")
	}
	return v, n, nil
}

func peekUvarintRaw(buf []byte) (uint64, int) {
	var x uint64
	var s uint
	for i, b := range buf {
		if i == 10 {
			return 0, -(i + 1)
		}
		if b < 0x80 {
			if i == 9 && b > 1 {
				return 0, -(i + 1)
			}
			return x | uint64(b)<<s, i + 1
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
	return 0, 0
}
