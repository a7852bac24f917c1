package traversal

import (
	"testing"

	"github.com/iamNilotpal/swaydb/internal/function"
	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/iamNilotpal/swaydb/internal/level0"
	"github.com/iamNilotpal/swaydb/pkg/codec"
	"github.com/stretchr/testify/require"
)

type constFunc struct {
	id     string
	input  function.Input
	result function.Result
}

func (f constFunc) ID() string                    { return f.id }
func (f constFunc) RequiredInput() function.Input { return f.input }
func (f constFunc) Apply(function.Args) (function.Result, error) {
	return f.result, nil
}

func newTwoLevelTraversal(t *testing.T, fns *function.Store) (*Traversal, *level0.Map, *level0.Map) {
	t.Helper()
	if fns == nil {
		fns = function.NewStore()
	}
	shallow := level0.New(level0.Config{Functions: fns})
	deep := level0.New(level0.Config{Functions: fns})
	tr := New([]Level{Level0Level{Map: shallow}, Level0Level{Map: deep}}, fns, nil)
	return tr, shallow, deep
}

// TestGet_DirectPutAtShallowestLevel reproduces the trivial case: a live Put
// in the shallowest level settles the read without consulting anything
// beneath it.
func TestGet_DirectPutAtShallowestLevel(t *testing.T) {
	tr, shallow, _ := newTwoLevelTraversal(t, nil)
	require.NoError(t, shallow.Write([]byte("k"), kv.Put{Value: []byte("v1"), Time: codec.NewTime(1)}))

	v, ok, err := tr.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v1"), v.(kv.Put).Value)
}

// TestGet_RemoveShadowsDeeperPut reproduces spec.md §8.2's shadowing
// scenario: a Remove in the shallowest level shadows a deeper Put for the
// same key, so the read settles to absent.
func TestGet_RemoveShadowsDeeperPut(t *testing.T) {
	tr, shallow, deep := newTwoLevelTraversal(t, nil)
	require.NoError(t, deep.Write([]byte("k"), kv.Put{Value: []byte("old"), Time: codec.NewTime(1)}))
	require.NoError(t, shallow.Write([]byte("k"), kv.Remove{Time: codec.NewTime(2)}))

	_, ok, err := tr.Get([]byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
}

// TestGet_UpdateMergesAgainstDeeperPut exercises the Update-over-Put merge
// path, resolving across two levels.
func TestGet_UpdateMergesAgainstDeeperPut(t *testing.T) {
	tr, shallow, deep := newTwoLevelTraversal(t, nil)
	require.NoError(t, deep.Write([]byte("k"), kv.Put{Value: []byte("old"), Time: codec.NewTime(1)}))
	require.NoError(t, shallow.Write([]byte("k"), kv.Update{Value: []byte("new"), Time: codec.NewTime(2)}))

	v, ok, err := tr.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("new"), v.(kv.Put).Value)
}

// TestGet_FunctionMergesAgainstDeeperPut reproduces spec.md §8.2 scenario 6:
// a local Function key-value with no locally-resolvable base finds and
// applies against a deeper level's Put.
func TestGet_FunctionMergesAgainstDeeperPut(t *testing.T) {
	fns := function.NewStore()
	require.NoError(t, fns.Put(constFunc{
		id:     "append-bang",
		input:  function.InputValue,
		result: function.Result{Kind: function.ResultUpdate, Value: []byte("old!")},
	}))

	tr, shallow, deep := newTwoLevelTraversal(t, fns)
	require.NoError(t, deep.Write([]byte("k"), kv.Put{Value: []byte("old"), Time: codec.NewTime(1)}))
	require.NoError(t, shallow.Write([]byte("k"), kv.Function{FnID: "append-bang", Time: codec.NewTime(2)}))

	v, ok, err := tr.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("old!"), v.(kv.Put).Value)
}

// TestGet_AbsentEverywhere confirms a key present in neither level settles
// to not-found with no error.
func TestGet_AbsentEverywhere(t *testing.T) {
	tr, _, _ := newTwoLevelTraversal(t, nil)
	_, ok, err := tr.Get([]byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)
}

// TestHigher_CombinesAcrossLevels picks the closer of two levels'
// candidates and resolves its full merged value.
func TestHigher_CombinesAcrossLevels(t *testing.T) {
	tr, shallow, deep := newTwoLevelTraversal(t, nil)
	require.NoError(t, deep.Write([]byte("b"), kv.Put{Value: []byte("deep-b"), Time: codec.NewTime(1)}))
	require.NoError(t, deep.Write([]byte("d"), kv.Put{Value: []byte("deep-d"), Time: codec.NewTime(1)}))
	require.NoError(t, shallow.Write([]byte("c"), kv.Put{Value: []byte("shallow-c"), Time: codec.NewTime(2)}))

	k, v, ok, err := tr.Higher([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("b"), k)
	require.Equal(t, []byte("deep-b"), v.(kv.Put).Value)

	k, v, ok, err = tr.Higher([]byte("b"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("c"), k)
	require.Equal(t, []byte("shallow-c"), v.(kv.Put).Value)
}

// TestHigher_SkipsCandidateThatResolvesAbsent ensures Higher keeps walking
// forward past a candidate key whose full merge settles to nothing (e.g. a
// Remove shadowing a deeper Put with no live value on top).
func TestHigher_SkipsCandidateThatResolvesAbsent(t *testing.T) {
	tr, shallow, deep := newTwoLevelTraversal(t, nil)
	require.NoError(t, deep.Write([]byte("b"), kv.Put{Value: []byte("deep-b"), Time: codec.NewTime(1)}))
	require.NoError(t, shallow.Write([]byte("b"), kv.Remove{Time: codec.NewTime(2)}))
	require.NoError(t, deep.Write([]byte("c"), kv.Put{Value: []byte("deep-c"), Time: codec.NewTime(1)}))

	k, v, ok, err := tr.Higher([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("c"), k)
	require.Equal(t, []byte("deep-c"), v.(kv.Put).Value)
}

// TestLower_CombinesAcrossLevels mirrors TestHigher_CombinesAcrossLevels.
func TestLower_CombinesAcrossLevels(t *testing.T) {
	tr, shallow, deep := newTwoLevelTraversal(t, nil)
	require.NoError(t, deep.Write([]byte("b"), kv.Put{Value: []byte("deep-b"), Time: codec.NewTime(1)}))
	require.NoError(t, shallow.Write([]byte("c"), kv.Put{Value: []byte("shallow-c"), Time: codec.NewTime(2)}))

	k, v, ok, err := tr.Lower([]byte("d"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("c"), k)
	require.Equal(t, []byte("shallow-c"), v.(kv.Put).Value)
}
