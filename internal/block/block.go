// Package block implements the Segment block layer: the SortedIndex,
// HashIndex, BinarySearchIndex, BloomFilter, Values, and Footer blocks that
// together make up a Segment file, plus the shared header/CRC/compression
// envelope every block is wrapped in.
package block

import (
	"hash/crc32"

	"github.com/golang/snappy"
	"github.com/iamNilotpal/swaydb/pkg/codec"
	"github.com/iamNilotpal/swaydb/pkg/errors"
)

// FormatID identifies the kind of block a header belongs to, the first byte
// of every block's on-disk representation.
type FormatID byte

const (
	FormatSortedIndex FormatID = iota + 1
	FormatHashIndex
	FormatBinarySearchIndex
	FormatBloomFilter
	FormatValues
	FormatFooter
)

// CompressionID identifies the compression algorithm applied to a block's
// payload, per spec.md §6.3's compress/decompress contract.
type CompressionID byte

const (
	CompressionNone   CompressionID = 0
	CompressionSnappy CompressionID = 1
)

// Compressor abstracts the compress/decompress contract spec.md §6.3
// assigns to an external collaborator. The default implementation wraps
// github.com/golang/snappy.
type Compressor interface {
	ID() CompressionID
	Compress(src []byte) []byte
	Decompress(dst, src []byte) ([]byte, error)
}

// SnappyCompressor is the default Compressor, grounded on the pack's WAL
// writers (aidevteam-icloudcom-influxdb, xlwh-prometheus) which both
// snappy-compress length-prefixed records before writing them.
type SnappyCompressor struct{}

func (SnappyCompressor) ID() CompressionID { return CompressionSnappy }

func (SnappyCompressor) Compress(src []byte) []byte {
	return snappy.Encode(nil, src)
}

func (SnappyCompressor) Decompress(dst, src []byte) ([]byte, error) {
	out, err := snappy.Decode(dst, src)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodePayloadReadFailure, "snappy decode failed").
			WithFileName("block-payload")
	}
	return out, nil
}

// BlockHandle is the file offset and total encoded length (header + extra +
// wrapped payload) of one block, the same offset/length-pair idiom used by
// on-disk sorted-table formats in the pack (backwardn-pebble's
// sstable.BlockHandle) in place of inferring a block's length from the next
// block's starting offset.
type BlockHandle struct {
	Offset int64
	Length int64
}

// Encode appends the varint-encoded handle to buf.
func (h BlockHandle) Encode(buf []byte) []byte {
	buf = codec.PutUvarint(buf, uint64(h.Offset))
	buf = codec.PutUvarint(buf, uint64(h.Length))
	return buf
}

// DecodeBlockHandle reads a handle from the start of buf, returning the
// handle and the number of bytes consumed.
func DecodeBlockHandle(buf []byte) (BlockHandle, int, error) {
	offset, n, err := codec.Uvarint(buf)
	if err != nil {
		return BlockHandle{}, 0, err
	}
	length, m, err := codec.Uvarint(buf[n:])
	if err != nil {
		return BlockHandle{}, 0, err
	}
	return BlockHandle{Offset: int64(offset), Length: int64(length)}, n + m, nil
}

// Header is the common envelope every block starts with:
// [formatId 1B][allocatedBytes uint32][compressionId 1B][block-specific header bytes...]
type Header struct {
	Format         FormatID
	AllocatedBytes uint32
	Compression    CompressionID
	// Extra carries the block-specific header varints (HashIndex's
	// maxProbe/hit/miss/minimumCRC/writeAbleLargestValueSize, Footer's
	// scalar fields, etc.) already encoded by the caller.
	Extra []byte
}

// Encode serializes the header: formatId, fixed-width allocatedBytes (so
// readers can parse it in O(1) without a varint scan), the compression id,
// then the block-specific Extra bytes.
func (h Header) Encode() []byte {
	buf := make([]byte, 0, 6+len(h.Extra))
	buf = append(buf, byte(h.Format))
	buf = codec.PutUint32(buf, h.AllocatedBytes)
	buf = append(buf, byte(h.Compression))
	buf = append(buf, h.Extra...)
	return buf
}

// DecodeHeader reads the fixed-width portion of a header (format,
// allocatedBytes, compression) and returns the remaining bytes (the
// block-specific Extra region plus payload) for the caller to continue
// parsing.
func DecodeHeader(buf []byte) (Header, []byte, error) {
	if len(buf) < 6 {
		return Header{}, nil, errors.NewStorageError(nil, errors.ErrorCodeHeaderReadFailure, "buffer too small for block header").
			WithOffset(0)
	}
	format := FormatID(buf[0])
	allocated, err := codec.Uint32(buf[1:5])
	if err != nil {
		return Header{}, nil, errors.NewStorageError(err, errors.ErrorCodeHeaderReadFailure, "failed to read allocatedBytes")
	}
	compression := CompressionID(buf[5])
	return Header{Format: format, AllocatedBytes: allocated, Compression: compression}, buf[6:], nil
}

// WrapPayload compresses payload (if comp is non-nil) and appends a CRC32
// (IEEE) trailer, per spec.md §4.1.7's CRC policy.
func WrapPayload(payload []byte, comp Compressor) []byte {
	body := payload
	if comp != nil {
		body = comp.Compress(payload)
	}
	checksum := crc32.ChecksumIEEE(body)
	out := make([]byte, 0, len(body)+4)
	out = append(out, body...)
	out = codec.PutUint32(out, checksum)
	return out
}

// UnwrapPayload validates the CRC32 trailer and, if comp is non-nil,
// decompresses the remaining bytes. Returns the raw, decompressed payload.
func UnwrapPayload(buf []byte, comp Compressor) ([]byte, error) {
	if len(buf) < 4 {
		return nil, errors.NewStorageError(nil, errors.ErrorCodePayloadReadFailure, "buffer too small for CRC trailer")
	}
	body := buf[:len(buf)-4]
	wantCRC, err := codec.Uint32(buf[len(buf)-4:])
	if err != nil {
		return nil, err
	}
	if gotCRC := crc32.ChecksumIEEE(body); gotCRC != wantCRC {
		return nil, errors.NewStorageError(nil, errors.ErrorCodeSegmentCorrupted, "block payload CRC mismatch").
			WithOffset(0)
	}
	if comp == nil {
		return body, nil
	}
	return comp.Decompress(nil, body)
}
