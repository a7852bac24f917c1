package errors

// MergeError is a specialized error type for failures in the versioned-value
// merge algebra. The Merger is documented to never fail for ordinary input —
// it stashes a PendingApply instead — so a MergeError always indicates a
// genuine invariant violation upstream (e.g. a PendingApply with an empty
// Applies list, or a Range whose fromKey/toKey are inverted).
type MergeError struct {
	*baseError

	// newKind and oldKind name the two variants the merge matrix was asked
	// to combine, for example "Function" and "Remove".
	newKind string
	oldKind string

	// key identifies which key the merge was being performed for.
	key string
}

// NewMergeError creates a new merge-specific error.
func NewMergeError(err error, code ErrorCode, msg string) *MergeError {
	return &MergeError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the MergeError type.
func (me *MergeError) WithMessage(msg string) *MergeError {
	me.baseError.WithMessage(msg)
	return me
}

// WithDetail adds contextual information while maintaining the MergeError type.
func (me *MergeError) WithDetail(key string, value any) *MergeError {
	me.baseError.WithDetail(key, value)
	return me
}

// WithKinds records the two variant kinds that could not be merged.
func (me *MergeError) WithKinds(newKind, oldKind string) *MergeError {
	me.newKind = newKind
	me.oldKind = oldKind
	return me
}

// WithKey records the key the merge was being performed for.
func (me *MergeError) WithKey(key string) *MergeError {
	me.key = key
	return me
}

// NewKind returns the kind of the newer value in the failed merge.
func (me *MergeError) NewKind() string { return me.newKind }

// OldKind returns the kind of the older value in the failed merge.
func (me *MergeError) OldKind() string { return me.oldKind }

// Key returns the key the merge was being performed for.
func (me *MergeError) Key() string { return me.key }
