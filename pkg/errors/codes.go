package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary. This includes file system operations like reading or
	// writing segment files, network operations when communicating with remote
	// systems, and device I/O when accessing storage hardware.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints. This maps
	// to HTTP 400-series errors and indicates problems with the request itself
	// rather than system failures.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories. These are the equivalent of HTTP 500 errors and
	// indicate bugs, assertion failures, or other programming errors that
	// shouldn't occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Storage-specific error codes extend the base error taxonomy to handle the
// unique failure modes that occur in persistent storage systems. These codes
// represent problems that are specific to the storage layer of your key-value
// store, particularly focusing on segment file management and data persistence.
const (
	// ErrorCodeSegmentCorrupted indicates that a segment file's data has been
	// damaged or is in an inconsistent state.
	ErrorCodeSegmentCorrupted ErrorCode = "SEGMENT_CORRUPTED"

	// ErrorCodeHeaderReadFailure occurs when the system cannot read the header
	// portion of a segment file. Headers contain critical metadata about the
	// segment's structure, so header read failures prevent access to the
	// entire segment and all data it contains.
	ErrorCodeHeaderReadFailure ErrorCode = "HEADER_READ_FAILURE"

	// ErrorCodePayloadReadFailure indicates problems reading the actual data
	// content from segment files after successfully reading the header. This
	// represents a more localized failure compared to header problems, as the
	// segment structure is intact but specific data regions are inaccessible.
	ErrorCodePayloadReadFailure ErrorCode = "PAYLOAD_READ_FAILURE"

	// ErrorCodeRecoveryFailed indicates that the storage system's attempt to
	// recover from a previous failure was unsuccessful. This represents a
	// compound failure where both the original problem and the recovery
	// mechanism have failed, creating a more serious operational situation.
	ErrorCodeRecoveryFailed ErrorCode = "STORAGE_RECOVERY_FAILED"

	// ErrorCodePermissionDenied indicates insufficient permissions to access a resource.
	// This is distinct from generic IO errors because it has a specific resolution path:
	// the user needs to adjust file/directory permissions or run with elevated privileges.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates that the storage device has run out of space.
	// This requires specific handling like cleanup operations or alerting administrators.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates that the filesystem is mounted read-only.
	// This requires administrative intervention to remount the filesystem with write permissions.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"

	// ErrorCodeReserved indicates a resource (file, buffer, segment) is
	// currently held by another owner. Retriable once the holder releases it.
	ErrorCodeReserved ErrorCode = "RESERVED"

	// ErrorCodeClosedChannel indicates an operation was attempted against a
	// file handle that has already been closed.
	ErrorCodeClosedChannel ErrorCode = "CLOSED_CHANNEL"

	// ErrorCodeShortWrite indicates the underlying device wrote fewer bytes
	// than requested. Fatal — callers must not assume partial durability.
	ErrorCodeShortWrite ErrorCode = "SHORT_WRITE"
)

// Index/segment-lookup error codes cover failures while resolving a key
// against a Segment's in-memory skiplist or on-disk block indexes.
const (
	// ErrorCodeIndexKeyNotFound indicates a key has no entry in the index.
	ErrorCodeIndexKeyNotFound ErrorCode = "INDEX_KEY_NOT_FOUND"

	// ErrorCodeIndexInvalidSegmentID indicates a lookup referenced a segment
	// id that no longer exists.
	ErrorCodeIndexInvalidSegmentID ErrorCode = "INDEX_INVALID_SEGMENT_ID"

	// ErrorCodeIndexCorrupted indicates the in-memory index structure itself
	// is internally inconsistent (e.g. a sorted-index offset out of range).
	ErrorCodeIndexCorrupted ErrorCode = "INDEX_CORRUPTED"

	// ErrorCodeIndexTimestampExtraction indicates a segment filename failed
	// to parse during discovery.
	ErrorCodeIndexTimestampExtraction ErrorCode = "INDEX_TIMESTAMP_EXTRACTION"
)

// Merge-specific error codes. The Merger itself never fails for ordinary
// input (it always produces PendingApply when it cannot decide locally);
// these codes cover genuine programmer errors in the merge matrix.
const (
	// ErrorCodeMergeInvalidPair indicates the merge matrix was asked to
	// merge a pair of variants that cannot legally meet (e.g. a PendingApply
	// whose Applies list is empty).
	ErrorCodeMergeInvalidPair ErrorCode = "MERGE_INVALID_PAIR"
)

// Assigner-specific error codes.
const (
	// ErrorCodeAssignNoTarget indicates an assignable arrived with no
	// current target and noGaps=true — a fatal programmer error per spec.
	ErrorCodeAssignNoTarget ErrorCode = "ASSIGN_NO_TARGET"
)

// Function-registry error codes.
const (
	// ErrorCodeFunctionNotFound indicates a Function key-value referenced a
	// function id absent from the FunctionStore.
	ErrorCodeFunctionNotFound ErrorCode = "FUNCTION_NOT_FOUND"

	// ErrorCodeFunctionAlreadyExists indicates Put was called twice for the
	// same id with two different functions.
	ErrorCodeFunctionAlreadyExists ErrorCode = "FUNCTION_ALREADY_EXISTS"
)
