package errors

// AssignError is a specialized error type for the SegmentAssigner. Per the
// assignment algorithm, assigning a key-value with no current target and
// noGaps=true is a fatal programmer error, not a recoverable condition.
type AssignError struct {
	*baseError

	// key is the assignable's key that could not be routed.
	key string

	// targetMinKey/targetMaxKey describe the target range, if any, that was
	// being considered when the error occurred.
	targetMinKey string
	targetMaxKey string
}

// NewAssignError creates a new assigner-specific error.
func NewAssignError(err error, code ErrorCode, msg string) *AssignError {
	return &AssignError{baseError: NewBaseError(err, code, msg)}
}

// WithDetail adds contextual information while maintaining the AssignError type.
func (ae *AssignError) WithDetail(key string, value any) *AssignError {
	ae.baseError.WithDetail(key, value)
	return ae
}

// WithKey records the assignable key that could not be routed.
func (ae *AssignError) WithKey(key string) *AssignError {
	ae.key = key
	return ae
}

// WithTargetRange records the target range under consideration.
func (ae *AssignError) WithTargetRange(minKey, maxKey string) *AssignError {
	ae.targetMinKey = minKey
	ae.targetMaxKey = maxKey
	return ae
}

// Key returns the assignable key that could not be routed.
func (ae *AssignError) Key() string { return ae.key }

// TargetRange returns the target range under consideration when the error occurred.
func (ae *AssignError) TargetRange() (minKey, maxKey string) { return ae.targetMinKey, ae.targetMaxKey }
