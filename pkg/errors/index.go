package errors

// IndexError provides specialized error handling for failures resolving a
// key against a Segment's skiplist or on-disk block indexes. This structure
// extends the base error system with index-specific context while properly
// supporting method chaining through all base error methods.
type IndexError struct {
	*baseError

	// key identifies which key was being resolved when the error occurred.
	key string

	// segmentID identifies which segment was involved, if applicable.
	segmentID uint16

	// operation describes what was being performed (e.g. "Get", "Higher",
	// "Lower", "Recovery") when the error occurred.
	operation string

	// indexSize captures the size of the index at the time of the error.
	indexSize int

	// memoryUsage estimates how much memory the index was consuming.
	memoryUsage int64
}

// NewIndexError creates a new index-specific error with the provided context.
func NewIndexError(err error, code ErrorCode, msg string) *IndexError {
	return &IndexError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the IndexError type.
func (ie *IndexError) WithMessage(msg string) *IndexError {
	ie.baseError.WithMessage(msg)
	return ie
}

// WithCode sets the error code while preserving the IndexError type.
func (ie *IndexError) WithCode(code ErrorCode) *IndexError {
	ie.baseError.WithCode(code)
	return ie
}

// WithDetail adds contextual information while maintaining the IndexError type.
func (ie *IndexError) WithDetail(key string, value any) *IndexError {
	ie.baseError.WithDetail(key, value)
	return ie
}

// WithKey records which key was being processed when the error occurred.
func (ie *IndexError) WithKey(key string) *IndexError {
	ie.key = key
	return ie
}

// WithSegmentID captures which segment was involved in the error.
func (ie *IndexError) WithSegmentID(segmentID uint16) *IndexError {
	ie.segmentID = segmentID
	return ie
}

// WithOperation records what operation was being performed.
func (ie *IndexError) WithOperation(operation string) *IndexError {
	ie.operation = operation
	return ie
}

// WithIndexSize captures the size of the index when the error occurred.
func (ie *IndexError) WithIndexSize(size int) *IndexError {
	ie.indexSize = size
	return ie
}

// WithMemoryUsage records the estimated memory consumption of the index.
func (ie *IndexError) WithMemoryUsage(usage int64) *IndexError {
	ie.memoryUsage = usage
	return ie
}

// Key returns the key that was being processed when the error occurred.
func (ie *IndexError) Key() string { return ie.key }

// SegmentID returns the segment identifier associated with the error.
func (ie *IndexError) SegmentID() uint16 { return ie.segmentID }

// Operation returns the name of the operation that was being performed.
func (ie *IndexError) Operation() string { return ie.operation }

// IndexSize returns the size of the index when the error occurred.
func (ie *IndexError) IndexSize() int { return ie.indexSize }

// MemoryUsage returns the estimated memory consumption when the error occurred.
func (ie *IndexError) MemoryUsage() int64 { return ie.memoryUsage }

// NewKeyNotFoundError creates a specialized error for missing keys.
func NewKeyNotFoundError(key string) *IndexError {
	return NewIndexError(nil, ErrorCodeIndexKeyNotFound, "key not found in index").
		WithKey(key).
		WithOperation("Get")
}

// NewSegmentIDError creates an error for invalid segment ID conditions.
func NewSegmentIDError(segmentID uint16, key string) *IndexError {
	return NewIndexError(nil, ErrorCodeIndexInvalidSegmentID, "segment ID not found").
		WithSegmentID(segmentID).
		WithKey(key).
		WithOperation("Get")
}

// NewTimestampExtractionError creates an error for filename parsing failures.
func NewTimestampExtractionError(filename string, cause error) *IndexError {
	return NewIndexError(cause, ErrorCodeIndexTimestampExtraction, "failed to extract timestamp from filename").
		WithOperation("TimestampExtraction").
		WithDetail("filename", filename).
		WithDetail("expected_format", "prefix_NNNNN_timestamp.seg")
}

// NewIndexCorruptionError creates an error for index corruption scenarios.
func NewIndexCorruptionError(operation string, indexSize int, cause error) *IndexError {
	return NewIndexError(cause, ErrorCodeIndexCorrupted, "index data structure corrupted").
		WithOperation(operation).
		WithIndexSize(indexSize).
		WithDetail("corruption_detected", true)
}
