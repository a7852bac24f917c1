// Package codec provides the primitive byte-level encodings used throughout
// the storage engine: unsigned varints, fixed-width integers, the monotonic
// Time counter, and Murmur3-x64 hashing for hash-index probing and bloom
// filters.
package codec

import (
	"encoding/binary"

	"github.com/iamNilotpal/swaydb/pkg/errors"
)

// PutUvarint appends the little-endian base-128 varint encoding of v to buf
// and returns the extended slice. MSB-continuation: each byte's high bit is
// set except the last.
func PutUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// Uvarint decodes a varint from the start of buf, returning the value and
// the number of bytes consumed. Returns a StorageError if buf is empty or
// the varint is truncated/overflows.
func Uvarint(buf []byte) (uint64, int, error) {
	v, n := binary.Uvarint(buf)
	if n == 0 {
		return 0, 0, errors.NewStorageError(nil, errors.ErrorCodePayloadReadFailure, "buffer too small to contain a varint")
	}
	if n < 0 {
		return 0, 0, errors.NewStorageError(nil, errors.ErrorCodePayloadReadFailure, "varint overflows 64 bits")
	}
	return v, n, nil
}

// PutVarint appends the zigzag-encoded varint representation of a signed
// value, used for offsets that may legitimately be -1 (sentinel for "no
// next entry").
func PutVarint(buf []byte, v int64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// Varint decodes a signed varint from the start of buf.
func Varint(buf []byte) (int64, int, error) {
	v, n := binary.Varint(buf)
	if n <= 0 {
		return 0, 0, errors.NewStorageError(nil, errors.ErrorCodePayloadReadFailure, "buffer too small or varint overflowed")
	}
	return v, n, nil
}

// PutUint32 appends a fixed-width big-endian uint32, used for block header
// fields that must be parsed in O(1) without a varint scan (allocatedBytes).
func PutUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// Uint32 reads a fixed-width big-endian uint32 from the start of buf.
func Uint32(buf []byte) (uint32, error) {
	if len(buf) < 4 {
		return 0, errors.NewStorageError(nil, errors.ErrorCodePayloadReadFailure, "buffer too small for uint32")
	}
	return binary.BigEndian.Uint32(buf), nil
}

// PutUint64 appends a fixed-width big-endian uint64.
func PutUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// Uint64 reads a fixed-width big-endian uint64 from the start of buf.
func Uint64(buf []byte) (uint64, error) {
	if len(buf) < 8 {
		return 0, errors.NewStorageError(nil, errors.ErrorCodePayloadReadFailure, "buffer too small for uint64")
	}
	return binary.BigEndian.Uint64(buf), nil
}
