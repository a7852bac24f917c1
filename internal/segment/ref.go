package segment

import (
	"io"
	"sync/atomic"

	"github.com/iamNilotpal/swaydb/internal/block"
	"github.com/iamNilotpal/swaydb/pkg/codec"
	"github.com/iamNilotpal/swaydb/pkg/errors"
	"github.com/iamNilotpal/swaydb/pkg/slice"
)

// EncodeFooterTrailer builds the fixed-width 16-byte trailer readFooter
// expects at the end of a Segment file, from the handle the Footer block
// was written at.
func EncodeFooterTrailer(h block.BlockHandle) []byte {
	buf := codec.PutUint64(nil, uint64(h.Offset))
	buf = codec.PutUint64(buf, uint64(h.Length))
	return buf
}

// SegmentRef is a handle onto one persistent Segment: its decoded Footer,
// lazily-materialized block readers (SegmentBlockCache), and the min/max
// key bounds an assigner or level searcher needs without touching the disk
// again. Segments are immutable once written, so these bounds never
// change for the lifetime of the ref.
type SegmentRef struct {
	id       uint64
	path     string
	minKey   []byte
	maxKey   []byte
	fileSize int64

	footer  block.Footer
	cache   *SegmentBlockCache
	kvCache *KVCache

	refCount atomic.Int32
	closed   atomic.Bool
	closer   io.Closer
}

// OpenRef decodes file's trailing Footer and returns a ready-to-search
// SegmentRef. file must also implement io.Closer if the caller wants
// Close to release the underlying descriptor.
func OpenRef(id uint64, path string, file io.ReaderAt, fileSize int64, comp block.Compressor, sweeper MemorySweeper, cmp slice.Comparator) (*SegmentRef, error) {
	footer, err := readFooter(file, fileSize)
	if err != nil {
		return nil, err
	}

	cache := NewSegmentBlockCache(file, footer, comp, sweeper)
	sortedIndex, err := cache.GetSortedIndex(cmp)
	if err != nil {
		return nil, err
	}

	first, ok, err := sortedIndex.ReadAtOK(0)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewStorageError(nil, errors.ErrorCodeSegmentCorrupted, "segment has no entries").WithPath(path)
	}

	last := first
	off := first.NextIndexOffset
	for off != -1 {
		e, ok, err := sortedIndex.ReadAtOK(off)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		last = e
		off = e.NextIndexOffset
	}

	ref := &SegmentRef{
		id:       id,
		path:     path,
		minKey:   append([]byte{}, first.Key...),
		maxKey:   append([]byte{}, last.Key...),
		fileSize: fileSize,
		footer:   footer,
		cache:    cache,
		kvCache:  NewKVCache(cmp, sweeper),
	}
	if c, ok := file.(io.Closer); ok {
		ref.closer = c
	}
	return ref, nil
}

// readFooter locates and decodes the Footer block written at the tail of
// the file. Unlike every other BlockHandle (varint-encoded, since it only
// ever appears inside an already-located block), the Footer's own handle is
// stored fixed-width in the trailing 16 bytes of the file, so a reader
// never has to scan forward from the start to find it.
func readFooter(file io.ReaderAt, fileSize int64) (block.Footer, error) {
	const trailerSize = 16 // offset uint64 + length uint64, fixed width
	if fileSize < trailerSize {
		return block.Footer{}, errors.NewStorageError(nil, errors.ErrorCodeSegmentCorrupted, "segment file too small for footer trailer")
	}
	trailer := make([]byte, trailerSize)
	if _, err := file.ReadAt(trailer, fileSize-trailerSize); err != nil && err != io.EOF {
		return block.Footer{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read footer trailer")
	}
	offset, err := codec.Uint64(trailer)
	if err != nil {
		return block.Footer{}, err
	}
	length, err := codec.Uint64(trailer[8:])
	if err != nil {
		return block.Footer{}, err
	}
	handle := block.BlockHandle{Offset: int64(offset), Length: int64(length)}

	buf := make([]byte, handle.Length)
	if _, err := file.ReadAt(buf, handle.Offset); err != nil && err != io.EOF {
		return block.Footer{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read footer block")
	}
	_, rest, err := block.DecodeHeader(buf)
	if err != nil {
		return block.Footer{}, err
	}
	payload, err := block.UnwrapPayload(rest, nil)
	if err != nil {
		return block.Footer{}, err
	}
	return block.DecodeFooter(payload)
}

// ID returns the Segment's sequence id (spec.md §4.6's naming scheme).
func (r *SegmentRef) ID() uint64 { return r.id }

// MinKey and MaxKey bound the Segment's key range, inclusive.
func (r *SegmentRef) MinKey() []byte { return r.minKey }
func (r *SegmentRef) MaxKey() []byte { return r.maxKey }

// KeyValueCount reports the Segment's cached entry count from its Footer.
func (r *SegmentRef) KeyValueCount() int { return r.footer.KeyValueCount }

// Size returns the Segment file's total byte size, as reported to OpenRef
// — used by defrag to decide whether a RemoteSegment is too small to pass
// through unchanged (spec.md §4.6).
func (r *SegmentRef) Size() int64 { return r.fileSize }

// HasRange/HasPut report the Footer's cached content-shape flags, used by
// the assigner and defrag to skip whole-Segment work cheaply.
func (r *SegmentRef) HasRange() bool { return r.footer.HasRange }
func (r *SegmentRef) HasPut() bool   { return r.footer.HasPut }

// Acquire increments the reference count; callers must pair every Acquire
// with a Release (spec.md §6.3's "open Segments are refcounted" rule).
func (r *SegmentRef) Acquire() {
	r.refCount.Add(1)
}

// Release decrements the reference count and closes the underlying file
// once it both reaches zero and the ref has been marked closed.
func (r *SegmentRef) Release() error {
	if r.refCount.Add(-1) == 0 && r.closed.Load() {
		return r.doClose()
	}
	return nil
}

// Close marks the ref for closing; the underlying file descriptor is only
// released once every outstanding Acquire has been matched by a Release.
func (r *SegmentRef) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	if r.refCount.Load() == 0 {
		return r.doClose()
	}
	return nil
}

func (r *SegmentRef) doClose() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// BlockCache exposes the ref's lazily-materialized block readers to the
// search pipeline.
func (r *SegmentRef) BlockCache() *SegmentBlockCache { return r.cache }

// KVCache exposes the ref's per-Segment recently-read key-value cache
// (spec.md §3.4/§4.2) to the search pipeline and the memory sweeper.
func (r *SegmentRef) KVCache() *KVCache { return r.kvCache }
