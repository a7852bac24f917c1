package errors

// FunctionError is a specialized error type for the FunctionStore registry.
// A FunctionNotFound is fatal for the read or compaction that triggered it;
// FunctionAlreadyExists guards the registry's insert-only contract.
type FunctionError struct {
	*baseError

	// id is the function identifier involved in the error.
	id string
}

// NewFunctionError creates a new function-registry error.
func NewFunctionError(err error, code ErrorCode, msg string) *FunctionError {
	return &FunctionError{baseError: NewBaseError(err, code, msg)}
}

// WithDetail adds contextual information while maintaining the FunctionError type.
func (fe *FunctionError) WithDetail(key string, value any) *FunctionError {
	fe.baseError.WithDetail(key, value)
	return fe
}

// WithID records the function id involved in the error.
func (fe *FunctionError) WithID(id string) *FunctionError {
	fe.id = id
	return fe
}

// ID returns the function id involved in the error.
func (fe *FunctionError) ID() string { return fe.id }

// NewFunctionNotFoundError creates the fatal error raised when a Function
// key-value references an id absent from the registry.
func NewFunctionNotFoundError(id string) *FunctionError {
	return NewFunctionError(nil, ErrorCodeFunctionNotFound, "function not found in registry").
		WithID(id)
}
