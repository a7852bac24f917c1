// Package merge implements Merger: the pure, side-effect-free function that
// combines a newer versioned-value onto an older one (spec.md §4.4). Merger
// never performs I/O; whenever it cannot locally determine the effective
// result it returns a kv.PendingApply for traversal to resolve later
// against lower levels (spec.md §9's "PendingApply as explicit stash" note).
package merge

import (
	"github.com/iamNilotpal/swaydb/internal/function"
	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/iamNilotpal/swaydb/pkg/errors"
	"github.com/iamNilotpal/swaydb/pkg/slice"
)

// Merge combines newer onto older for the entry at key, consulting fns to
// run any referenced Function. cmp orders keys (used for Range
// containment); pass nil for the default lexicographic comparator.
//
// The sole time-ordering rule (spec.md §4.4): if newer.Stamp() does not
// strictly exceed older.Stamp(), older is returned unchanged — a lower or
// equal time never displaces a higher one, regardless of variant.
func Merge(key []byte, newer, older kv.Value, fns *function.Store, cmp slice.Comparator) (kv.Value, error) {
	if cmp == nil {
		cmp = slice.DefaultComparator
	}
	if !newer.Stamp().After(older.Stamp()) {
		return older, nil
	}

	if older.Kind() == kv.KindPendingApply {
		return appendPending(newer, older.(kv.PendingApply)), nil
	}

	switch n := newer.(type) {
	case kv.Put:
		return n, nil
	case kv.Remove:
		return mergeRemove(n, older), nil
	case kv.Update:
		return mergeUpdate(n, older)
	case kv.Function:
		return mergeFunction(key, n, older, fns)
	case kv.PendingApply:
		return mergePendingApplyIncoming(key, n, older, fns, cmp)
	case kv.Range:
		return mergeRangeOverFixed(key, n, older, fns, cmp)
	default:
		return nil, errors.NewMergeError(nil, errors.ErrorCodeMergeInvalidPair, "unrecognized newer variant").
			WithKinds(newer.Kind().String(), older.Kind().String())
	}
}

// appendPending stashes newer at the tail of an already-pending chain,
// per spec.md §4.4's "Anything over PendingApply: append to the applies
// list" rule.
func appendPending(newer kv.Value, older kv.PendingApply) kv.Value {
	return kv.PendingApply{
		Applies: append(append([]kv.Value{}, older.Applies...), newer),
		Time:    newer.Stamp(),
	}
}

// mergeRemove implements "Remove over Put/Update/Function/...": a
// deadline-less Remove is an outright tombstone; a timed Remove over
// anything carrying a value becomes a timed-expiry Put instead, per
// spec.md §4.4 and §8.2 scenario 3.
func mergeRemove(n kv.Remove, older kv.Value) kv.Value {
	if !n.Deadline.IsSet() {
		return n
	}
	switch o := older.(type) {
	case kv.Put:
		return kv.Put{Value: o.Value, Deadline: n.Deadline, Time: n.Time}
	case kv.Update:
		return kv.Put{Value: o.Value, Deadline: n.Deadline, Time: n.Time}
	default:
		return n
	}
}

// mergeUpdate implements "Update over Put" (overwrite, falling back to
// old's deadline when the update carries none), "Update over Remove"
// (keep a deadline-less remove; stash a PendingApply for a timed one since
// whether the removal survives depends on lower levels), and a degenerate
// Update-over-Update fold.
func mergeUpdate(n kv.Update, older kv.Value) (kv.Value, error) {
	switch o := older.(type) {
	case kv.Put:
		return kv.Put{Value: n.Value, Deadline: fallbackDeadline(n.Deadline, o.Deadline), Time: n.Time}, nil
	case kv.Update:
		return kv.Update{Value: n.Value, Deadline: fallbackDeadline(n.Deadline, o.Deadline), Time: n.Time}, nil
	case kv.Remove:
		if !o.Deadline.IsSet() {
			return o, nil
		}
		return kv.PendingApply{Applies: []kv.Value{n}, Time: n.Time}, nil
	default:
		return kv.PendingApply{Applies: []kv.Value{n}, Time: n.Time}, nil
	}
}

func fallbackDeadline(preferred, fallback kv.Deadline) kv.Deadline {
	if preferred.IsSet() {
		return preferred
	}
	return fallback
}

// mergeFunction dispatches a Function onto older, running it when the
// function's declared required input is satisfiable from older's fields,
// and stashing a PendingApply otherwise (spec.md §4.4, §9's Function
// dispatch note and its Open Question #1 on Remove-with-deadline). The
// function is looked up only when older is a Put or Update it could run
// against; the other branches never consult the store.
func mergeFunction(key []byte, n kv.Function, older kv.Value, fns *function.Store) (kv.Value, error) {
	switch o := older.(type) {
	case kv.Put:
		fn, ok := fns.Get(n.FnID)
		if !ok {
			return nil, function.NotFoundError(n.FnID)
		}
		args := function.Args{Key: key, Value: o.Value, HasValue: true, Deadline: o.Deadline}
		if !function.Satisfies(fn.RequiredInput(), args) {
			// PendingApply.Applies holds only Update/Remove/Function
			// (spec.md §3.2); carry the Put's value/deadline forward as
			// its Update equivalent so the base is not lost.
			base := kv.Update{Value: o.Value, Deadline: o.Deadline, Time: o.Time}
			return kv.PendingApply{Applies: []kv.Value{base, n}, Time: n.Time}, nil
		}
		return applyFunc(fn, args, n.Time, o.Value, o.Deadline)

	case kv.Update:
		fn, ok := fns.Get(n.FnID)
		if !ok {
			return nil, function.NotFoundError(n.FnID)
		}
		args := function.Args{Key: key, Value: o.Value, HasValue: true, Deadline: o.Deadline}
		if !function.Satisfies(fn.RequiredInput(), args) {
			return kv.PendingApply{Applies: []kv.Value{o, n}, Time: n.Time}, nil
		}
		return applyFunc(fn, args, n.Time, o.Value, o.Deadline)

	case kv.Remove:
		// Open Question #1 (DESIGN.md): preserved source behavior — always
		// stash when the remove carries a deadline, even if the function
		// only declares InputKey.
		if !o.Deadline.IsSet() {
			return kv.Remove{Deadline: kv.NoDeadline, Time: n.Time}, nil
		}
		return kv.PendingApply{Applies: []kv.Value{n}, Time: n.Time}, nil

	case kv.Function:
		return kv.PendingApply{Applies: []kv.Value{o, n}, Time: n.Time}, nil

	default:
		return kv.PendingApply{Applies: []kv.Value{n}, Time: n.Time}, nil
	}
}

// applyFunc runs fn and turns its Result into the corresponding
// versioned-value, stamped with the function's own time (spec.md §4.4).
func applyFunc(fn function.Func, args function.Args, t kv.Time, fallbackValue []byte, fallbackDeadline kv.Deadline) (kv.Value, error) {
	res, err := fn.Apply(args)
	if err != nil {
		return nil, err
	}
	switch res.Kind {
	case function.ResultNothing:
		return kv.Put{Value: fallbackValue, Deadline: fallbackDeadline, Time: t}, nil
	case function.ResultRemove:
		return kv.Remove{Deadline: kv.NoDeadline, Time: t}, nil
	case function.ResultExpire:
		return kv.Remove{Deadline: res.Deadline, Time: t}, nil
	case function.ResultUpdate:
		d := res.Deadline
		if !d.IsSet() {
			d = fallbackDeadline
		}
		return kv.Put{Value: res.Value, Deadline: d, Time: t}, nil
	default:
		return nil, errors.NewMergeError(nil, errors.ErrorCodeMergeInvalidPair, "function returned an unrecognized result kind")
	}
}

// mergePendingApplyIncoming handles the rare case of a PendingApply
// arriving as the newer mutator (e.g. replayed from a write-ahead log): it
// folds each stashed apply, oldest to newest, onto older via a recursive
// Merge.
func mergePendingApplyIncoming(key []byte, n kv.PendingApply, older kv.Value, fns *function.Store, cmp slice.Comparator) (kv.Value, error) {
	if len(n.Applies) == 0 {
		return nil, errors.NewMergeError(nil, errors.ErrorCodeMergeInvalidPair, "PendingApply.Applies must be non-empty")
	}
	cur := older
	for _, apply := range n.Applies {
		merged, err := Merge(key, apply, cur, fns, cmp)
		if err != nil {
			return nil, err
		}
		cur = merged
	}
	return cur, nil
}

// mergeRangeOverFixed implements "Range over Fixed" (spec.md §4.4): the
// range only affects a fixed entry whose key lies inside [FromKey, ToKey);
// when it does, RangeValue is merged onto the fixed value recursively.
func mergeRangeOverFixed(key []byte, n kv.Range, older kv.Value, fns *function.Store, cmp slice.Comparator) (kv.Value, error) {
	if older.Kind() == kv.KindRange {
		return nil, errors.NewMergeError(nil, errors.ErrorCodeMergeInvalidPair, "Range-over-Range must be split by the caller before calling Merge").
			WithKinds(n.Kind().String(), older.Kind().String())
	}
	if !n.Contains(key, cmp) {
		return older, nil
	}
	return Merge(key, n.RangeValue, older, fns, cmp)
}
