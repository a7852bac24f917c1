package merge

import (
	"testing"
	"time"

	"github.com/iamNilotpal/swaydb/internal/function"
	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/stretchr/testify/require"
)

func mustMerge(t *testing.T, key []byte, newer, older kv.Value, fns *function.Store) kv.Value {
	t.Helper()
	v, err := Merge(key, newer, older, fns, nil)
	require.NoError(t, err)
	return v
}

func TestMerge_TimeGate(t *testing.T) {
	older := kv.Put{Value: []byte("v1"), Time: kv.Time(codecTime(5))}
	newerStale := kv.Put{Value: []byte("v2"), Time: kv.Time(codecTime(3))}
	got := mustMerge(t, []byte("k"), newerStale, older, function.NewStore())
	require.Equal(t, older, got)

	newerFresh := kv.Put{Value: []byte("v3"), Time: kv.Time(codecTime(9))}
	got = mustMerge(t, []byte("k"), newerFresh, older, function.NewStore())
	require.Equal(t, newerFresh, got)
}

func TestMerge_PutAlwaysWins(t *testing.T) {
	older := kv.Remove{Time: kv.Time(codecTime(1))}
	newer := kv.Put{Value: []byte("v"), Time: kv.Time(codecTime(2))}
	got := mustMerge(t, []byte("k"), newer, older, function.NewStore())
	require.Equal(t, newer, got)
}

// TestMerge_ExpiringRemoveOverPut reproduces spec.md §8.2 scenario 3.
func TestMerge_ExpiringRemoveOverPut(t *testing.T) {
	deadline := kv.NewDeadline(time.Now().Add(time.Hour))
	older := kv.Put{Value: []byte("v"), Deadline: deadline, Time: kv.Time(codecTime(5))}
	newer := kv.Remove{Deadline: deadline, Time: kv.Time(codecTime(7))}

	got := mustMerge(t, []byte("k"), newer, older, function.NewStore())
	want := kv.Put{Value: []byte("v"), Deadline: deadline, Time: kv.Time(codecTime(7))}
	require.Equal(t, want, got)
}

func TestMerge_PlainRemoveOverPut(t *testing.T) {
	older := kv.Put{Value: []byte("v"), Time: kv.Time(codecTime(5))}
	newer := kv.Remove{Time: kv.Time(codecTime(7))}
	got := mustMerge(t, []byte("k"), newer, older, function.NewStore())
	require.Equal(t, newer, got)
}

func TestMerge_UpdateOverRemove_NoDeadlineKeepsRemove(t *testing.T) {
	older := kv.Remove{Time: kv.Time(codecTime(3))}
	newer := kv.Update{Value: []byte("v"), Time: kv.Time(codecTime(5))}
	got := mustMerge(t, []byte("k"), newer, older, function.NewStore())
	require.Equal(t, older, got)
}

func TestMerge_UpdateOverRemove_DeadlineStashesPendingApply(t *testing.T) {
	older := kv.Remove{Deadline: kv.NewDeadline(time.Now().Add(time.Hour)), Time: kv.Time(codecTime(3))}
	newer := kv.Update{Value: []byte("v"), Time: kv.Time(codecTime(5))}
	got := mustMerge(t, []byte("k"), newer, older, function.NewStore())
	pa, ok := got.(kv.PendingApply)
	require.True(t, ok)
	require.Equal(t, []kv.Value{newer}, pa.Applies)
}

// TestMerge_FunctionStashedOverUpdateMissingDeadline reproduces spec.md
// §8.2 scenario 4: a function requiring a deadline, applied over an
// Update that has none, must stash.
func TestMerge_FunctionStashedOverUpdateMissingDeadline(t *testing.T) {
	store := function.NewStore()
	require.NoError(t, store.Put(keyDeadlineFunc{id: "keyDeadline"}))

	older := kv.Update{Value: []byte("v"), Time: kv.Time(codecTime(3))}
	newer := kv.Function{FnID: "keyDeadline", Time: kv.Time(codecTime(5))}

	got := mustMerge(t, []byte("k"), newer, older, store)
	pa, ok := got.(kv.PendingApply)
	require.True(t, ok)
	require.Equal(t, []kv.Value{older, newer}, pa.Applies)
}

func TestMerge_FunctionOverFunction(t *testing.T) {
	older := kv.Function{FnID: "a", Time: kv.Time(codecTime(1))}
	newer := kv.Function{FnID: "b", Time: kv.Time(codecTime(2))}
	got := mustMerge(t, []byte("k"), newer, older, function.NewStore())
	pa, ok := got.(kv.PendingApply)
	require.True(t, ok)
	require.Equal(t, []kv.Value{older, newer}, pa.Applies)
}

// TestMerge_FunctionOverRemoveWithDeadlineStashes implements the preserved
// Open Question #1 decision: always stash, even for a Key-only function.
func TestMerge_FunctionOverRemoveWithDeadlineStashes(t *testing.T) {
	store := function.NewStore()
	require.NoError(t, store.Put(keyOnlyFunc{id: "keyOnly"}))

	older := kv.Remove{Deadline: kv.NewDeadline(time.Now().Add(time.Hour)), Time: kv.Time(codecTime(1))}
	newer := kv.Function{FnID: "keyOnly", Time: kv.Time(codecTime(2))}

	got := mustMerge(t, []byte("k"), newer, older, store)
	_, ok := got.(kv.PendingApply)
	require.True(t, ok)
}

func TestMerge_FunctionOverRemoveNoDeadline(t *testing.T) {
	store := function.NewStore()
	older := kv.Remove{Time: kv.Time(codecTime(1))}
	newer := kv.Function{FnID: "anything", Time: kv.Time(codecTime(2))}
	got := mustMerge(t, []byte("k"), newer, older, store)
	require.Equal(t, kv.Remove{Time: kv.Time(codecTime(2))}, got)
}

// TestMerge_GetAcrossTwoLevels reproduces spec.md §8.2 scenario 6's
// function-over-put evaluation.
func TestMerge_GetAcrossTwoLevels(t *testing.T) {
	store := function.NewStore()
	require.NoError(t, store.Put(doubleValueFunc{id: "double"}))

	lowerPut := kv.Put{Value: []byte("v1"), Time: kv.Time(codecTime(5))}
	upperFn := kv.Function{FnID: "double", Time: kv.Time(codecTime(10))}

	got := mustMerge(t, []byte("k"), upperFn, lowerPut, store)
	want := kv.Put{Value: []byte("v2"), Time: kv.Time(codecTime(10))}
	require.Equal(t, want, got)
}

func TestMerge_RangeOverFixed_InsideInterval(t *testing.T) {
	store := function.NewStore()
	fixed := kv.Put{Value: []byte("v"), Time: kv.Time(codecTime(1))}
	r := kv.Range{
		FromKey: []byte("a"), ToKey: []byte("z"),
		RangeValue: kv.Update{Value: []byte("updated"), Time: kv.Time(codecTime(2))},
		Time:       kv.Time(codecTime(2)),
	}
	got := mustMerge(t, []byte("m"), r, fixed, store)
	require.Equal(t, kv.Put{Value: []byte("updated"), Time: kv.Time(codecTime(2))}, got)
}

func TestMerge_RangeOverFixed_OutsideIntervalIsNoop(t *testing.T) {
	store := function.NewStore()
	fixed := kv.Put{Value: []byte("v"), Time: kv.Time(codecTime(1))}
	r := kv.Range{
		FromKey: []byte("a"), ToKey: []byte("b"),
		RangeValue: kv.Update{Value: []byte("updated"), Time: kv.Time(codecTime(2))},
		Time:       kv.Time(codecTime(2)),
	}
	got := mustMerge(t, []byte("z"), r, fixed, store)
	require.Equal(t, fixed, got)
}

// --- test fixtures ---

func codecTime(n uint64) [8]byte {
	var t [8]byte
	for i := 7; i >= 0; i-- {
		t[i] = byte(n)
		n >>= 8
	}
	return t
}

type keyDeadlineFunc struct{ id string }

func (f keyDeadlineFunc) ID() string                       { return f.id }
func (f keyDeadlineFunc) RequiredInput() function.Input    { return function.InputKeyDeadline }
func (f keyDeadlineFunc) Apply(function.Args) (function.Result, error) {
	return function.Result{Kind: function.ResultNothing}, nil
}

type keyOnlyFunc struct{ id string }

func (f keyOnlyFunc) ID() string                    { return f.id }
func (f keyOnlyFunc) RequiredInput() function.Input { return function.InputKey }
func (f keyOnlyFunc) Apply(function.Args) (function.Result, error) {
	return function.Result{Kind: function.ResultRemove}, nil
}

type doubleValueFunc struct{ id string }

func (f doubleValueFunc) ID() string                    { return f.id }
func (f doubleValueFunc) RequiredInput() function.Input { return function.InputValue }
func (f doubleValueFunc) Apply(args function.Args) (function.Result, error) {
	return function.Result{Kind: function.ResultUpdate, Value: []byte("v2")}, nil
}
