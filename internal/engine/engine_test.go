package engine

import (
	"context"
	"testing"

	"github.com/iamNilotpal/swaydb/internal/function"
	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/iamNilotpal/swaydb/pkg/options"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	e, err := New(&Config{
		Options: &options.Options{
			SegmentOptions: &options.SegmentOptions{Directory: dir, Prefix: "seg"},
			BlockOptions:   &options.BlockOptions{},
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestPutGet_RoundTrip(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Put([]byte("a"), []byte("1"), kv.NoDeadline))

	v, ok, err := e.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)
}

func TestGet_MissingKeyReturnsFalse(t *testing.T) {
	e := newTestEngine(t)
	_, ok, err := e.Get([]byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRemove_ShadowsPriorPut(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Put([]byte("a"), []byte("1"), kv.NoDeadline))
	require.NoError(t, e.Remove([]byte("a"), kv.NoDeadline))

	_, ok, err := e.Get([]byte("a"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdateValue_AppliesAgainstExistingPut(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Put([]byte("a"), []byte("1"), kv.NoDeadline))
	require.NoError(t, e.UpdateValue([]byte("a"), []byte("2"), kv.NoDeadline))

	v, ok, err := e.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)
}

type upperFn struct{}

func (upperFn) ID() string                    { return "upper" }
func (upperFn) RequiredInput() function.Input { return function.InputValue }
func (upperFn) Apply(args function.Args) (function.Result, error) {
	b := make([]byte, len(args.Value))
	for i, c := range args.Value {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		b[i] = c
	}
	return function.Result{Kind: function.ResultUpdate, Value: b}, nil
}

func TestApplyFunction_MutatesExistingValue(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.RegisterFunction(upperFn{}))
	require.NoError(t, e.Put([]byte("a"), []byte("hello"), kv.NoDeadline))
	require.NoError(t, e.ApplyFunction([]byte("a"), "upper"))

	v, ok, err := e.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("HELLO"), v)
}

func TestHigherLower_CombineLevel0Entries(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Put([]byte("a"), []byte("1"), kv.NoDeadline))
	require.NoError(t, e.Put([]byte("m"), []byte("2"), kv.NoDeadline))
	require.NoError(t, e.Put([]byte("z"), []byte("3"), kv.NoDeadline))

	k, v, ok, err := e.Higher([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("m"), k)
	require.Equal(t, []byte("2"), v)

	k, v, ok, err = e.Lower([]byte("z"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("m"), k)
	require.Equal(t, []byte("2"), v)
}

func TestCompact_DrainsLevel0IntoPersistentLevel(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Put([]byte("a"), []byte("1"), kv.NoDeadline))
	require.NoError(t, e.Put([]byte("b"), []byte("2"), kv.NoDeadline))

	require.NoError(t, e.Compact(context.Background(), 0))
	require.Equal(t, 0, e.level0.Len())

	v, ok, err := e.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)

	v, ok, err = e.Get([]byte("b"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)
}

func TestCompact_SecondRoundMergesAgainstExistingSegment(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Put([]byte("a"), []byte("1"), kv.NoDeadline))
	require.NoError(t, e.Compact(context.Background(), 0))

	require.NoError(t, e.Put([]byte("a"), []byte("2"), kv.NoDeadline))
	require.NoError(t, e.Put([]byte("c"), []byte("3"), kv.NoDeadline))
	require.NoError(t, e.Compact(context.Background(), 0))

	v, ok, err := e.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)

	v, ok, err = e.Get([]byte("c"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("3"), v)
}

func TestClose_RejectsFurtherOperations(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Close())

	err := e.Put([]byte("a"), []byte("1"), kv.NoDeadline)
	require.ErrorIs(t, err, ErrEngineClosed)

	require.ErrorIs(t, e.Close(), ErrEngineClosed)
}
