package block

// ValuesWriter accumulates value payloads contiguously, returning the
// (offset, length) pair each Append was written at so the SortedIndex can
// reference it instead of inlining the value (spec.md §4.1.5).
type ValuesWriter struct {
	buf []byte
}

// NewValuesWriter returns an empty writer.
func NewValuesWriter() *ValuesWriter {
	return &ValuesWriter{}
}

// Append writes value and returns its (offset, length).
func (w *ValuesWriter) Append(value []byte) (offset, length int64) {
	offset = int64(len(w.buf))
	w.buf = append(w.buf, value...)
	return offset, int64(len(value))
}

// Build finalizes the header and payload. ValuesWriter has no
// block-specific header fields beyond the shared envelope.
func (w *ValuesWriter) Build() (Header, []byte) {
	return Header{Format: FormatValues, AllocatedBytes: uint32(len(w.buf))}, w.buf
}

// ValuesReader resolves (offset, length) pairs against a materialized
// payload.
type ValuesReader struct {
	payload []byte
}

// DecodeValues wraps a decompressed, CRC-verified values payload.
func DecodeValues(payload []byte) *ValuesReader {
	return &ValuesReader{payload: payload}
}

// Get returns the value bytes at (offset, length). The returned slice
// aliases the reader's backing payload; callers that need it to outlive
// the payload's buffer must copy it.
func (r *ValuesReader) Get(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || int(offset+length) > len(r.payload) {
		return nil, wrapCorrupted(nil)
	}
	return r.payload[offset : offset+length], nil
}
