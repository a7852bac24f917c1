package level0

import (
	"testing"

	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/stretchr/testify/require"
)

func t8(n uint64) kv.Time {
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = byte(n)
		n >>= 8
	}
	return kv.Time(b)
}

func TestWrite_FixedOnFixed_LastWriteWins(t *testing.T) {
	m := New(Config{})
	require.NoError(t, m.Write([]byte("k"), kv.Put{Value: []byte("v1"), Time: t8(1)}))
	require.NoError(t, m.Write([]byte("k"), kv.Put{Value: []byte("v2"), Time: t8(2)}))

	got, ok := m.Get([]byte("k"))
	require.True(t, ok)
	require.Equal(t, kv.Put{Value: []byte("v2"), Time: t8(2)}, got)
}

// TestWrite_RangeOverwriteSplitsPriorRange reproduces spec.md §8.2 scenario 1.
func TestWrite_RangeOverwriteSplitsPriorRange(t *testing.T) {
	m := New(Config{})
	r1 := kv.Range{
		FromKey: []byte("a"), ToKey: []byte("z"),
		RangeValue: kv.Put{Value: []byte("old"), Time: t8(1)},
		Time:       t8(1),
	}
	require.NoError(t, m.Write(r1.FromKey, r1))

	r2 := kv.Range{
		FromKey: []byte("m"), ToKey: []byte("t"),
		RangeValue: kv.Put{Value: []byte("new"), Time: t8(2)},
		Time:       t8(2),
	}
	require.NoError(t, m.Write(r2.FromKey, r2))

	require.Equal(t, 3, m.Len())

	v, k, ok := m.Floor([]byte("a"))
	require.True(t, ok)
	require.Equal(t, []byte("a"), k)
	left := v.(kv.Range)
	require.Equal(t, []byte("m"), left.ToKey)

	v, k, ok = m.Floor([]byte("m"))
	require.True(t, ok)
	require.Equal(t, []byte("m"), k)
	mid := v.(kv.Range)
	require.Equal(t, []byte("t"), mid.ToKey)
	require.Equal(t, kv.Put{Value: []byte("new"), Time: t8(2)}, mid.RangeValue)

	v, k, ok = m.Floor([]byte("t"))
	require.True(t, ok)
	require.Equal(t, []byte("t"), k)
	right := v.(kv.Range)
	require.Equal(t, []byte("z"), right.ToKey)
}

// TestWrite_RemoveRangeClearsFixedInterior reproduces spec.md §8.2
// scenario 2: a Remove-Range clears fixed keys strictly inside the
// interval while the map keeps no trace of them.
func TestWrite_RemoveRangeClearsFixedInterior(t *testing.T) {
	m := New(Config{})
	require.NoError(t, m.Write([]byte("a"), kv.Put{Value: []byte("va"), Time: t8(1)}))
	require.NoError(t, m.Write([]byte("m"), kv.Put{Value: []byte("vm"), Time: t8(1)}))
	require.NoError(t, m.Write([]byte("z"), kv.Put{Value: []byte("vz"), Time: t8(1)}))

	rm := kv.Range{
		FromKey: []byte("b"), ToKey: []byte("y"),
		RangeValue: kv.Remove{Time: t8(2)},
		Time:       t8(2),
	}
	require.NoError(t, m.Write(rm.FromKey, rm))

	_, ok := m.Get([]byte("m"))
	require.False(t, ok)

	_, ok = m.Get([]byte("a"))
	require.True(t, ok)
	_, ok = m.Get([]byte("z"))
	require.True(t, ok)
}

func TestWrite_FixedInsideRange_SplitsIntoThree(t *testing.T) {
	m := New(Config{})
	r := kv.Range{
		FromKey: []byte("a"), ToKey: []byte("z"),
		RangeValue: kv.Put{Value: []byte("rv"), Time: t8(1)},
		Time:       t8(1),
	}
	require.NoError(t, m.Write(r.FromKey, r))
	require.NoError(t, m.Write([]byte("m"), kv.Update{Value: []byte("mv"), Time: t8(2)}))

	require.Equal(t, 3, m.Len())

	v, _, ok := m.Floor([]byte("m"))
	require.True(t, ok)
	mid := v.(kv.Range)
	require.Equal(t, []byte("m"), mid.FromKey)
	require.NotNil(t, mid.FromValue)
	require.Equal(t, kv.KindPut, mid.FromValue.Kind())
}

func TestWrite_RangeOnDisjointSpace_InsertsAsIs(t *testing.T) {
	m := New(Config{})
	r1 := kv.Range{FromKey: []byte("a"), ToKey: []byte("f"), RangeValue: kv.Put{Value: []byte("1"), Time: t8(1)}, Time: t8(1)}
	r2 := kv.Range{FromKey: []byte("m"), ToKey: []byte("t"), RangeValue: kv.Put{Value: []byte("2"), Time: t8(1)}, Time: t8(1)}

	require.NoError(t, m.Write(r1.FromKey, r1))
	require.NoError(t, m.Write(r2.FromKey, r2))
	require.Equal(t, 2, m.Len())
}

func TestHigherLower(t *testing.T) {
	m := New(Config{})
	require.NoError(t, m.Write([]byte("a"), kv.Put{Value: []byte("1"), Time: t8(1)}))
	require.NoError(t, m.Write([]byte("m"), kv.Put{Value: []byte("2"), Time: t8(1)}))
	require.NoError(t, m.Write([]byte("z"), kv.Put{Value: []byte("3"), Time: t8(1)}))

	_, k, ok := m.Higher([]byte("a"))
	require.True(t, ok)
	require.Equal(t, []byte("m"), k)

	_, k, ok = m.Lower([]byte("z"))
	require.True(t, ok)
	require.Equal(t, []byte("m"), k)

	_, _, ok = m.Higher([]byte("z"))
	require.False(t, ok)

	_, _, ok = m.Lower([]byte("a"))
	require.False(t, ok)
}
