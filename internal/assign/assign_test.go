package assign

import (
	"testing"

	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/iamNilotpal/swaydb/pkg/slice"
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

func k(s string) []byte { return []byte(s) }

func TestAssign_RangeSpreadsOverTwoTargets(t *testing.T) {
	targets := []Target{
		{MinKey: k("1"), MaxKey: k("10")},
		{MinKey: k("10"), MaxKey: k("20")},
	}
	stream := []Assignable{
		KeyValue{K: k("5"), V: kv.Range{FromKey: k("5"), ToKey: k("15"), RangeValue: kv.Update{Value: []byte("v"), Time: t8(1)}, Time: t8(1)}},
	}

	entries, err := Assign(stream, targets, true, slice.DefaultComparator)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.False(t, entries[0].IsGap)
	require.Equal(t, 0, entries[0].TargetIndex)
	require.Len(t, entries[0].Items, 1)
	left := entries[0].Items[0].(KeyValue)
	require.Equal(t, k("5"), left.K)
	leftRange := left.V.(kv.Range)
	require.Equal(t, k("5"), leftRange.FromKey)
	require.Equal(t, k("10"), leftRange.ToKey)

	require.False(t, entries[1].IsGap)
	require.Equal(t, 1, entries[1].TargetIndex)
	require.Len(t, entries[1].Items, 1)
	right := entries[1].Items[0].(KeyValue)
	require.Equal(t, k("10"), right.K)
	rightRange := right.V.(kv.Range)
	require.Equal(t, k("10"), rightRange.FromKey)
	require.Equal(t, k("15"), rightRange.ToKey)
}

func TestAssign_ExhaustivenessAndNonCrossing(t *testing.T) {
	targets := []Target{
		{MinKey: k("a"), MaxKey: k("d")},
		{MinKey: k("f"), MaxKey: k("h")},
		{MinKey: k("k"), MaxKey: k("z")},
	}
	stream := []Assignable{
		KeyValue{K: k("0"), V: kv.Put{Value: []byte("v0"), Time: t8(1)}},
		KeyValue{K: k("a"), V: kv.Put{Value: []byte("va"), Time: t8(1)}},
		KeyValue{K: k("c"), V: kv.Put{Value: []byte("vc"), Time: t8(1)}},
		KeyValue{K: k("e"), V: kv.Put{Value: []byte("ve"), Time: t8(1)}},
		KeyValue{K: k("g"), V: kv.Put{Value: []byte("vg"), Time: t8(1)}},
		KeyValue{K: k("j"), V: kv.Put{Value: []byte("vj"), Time: t8(1)}},
		KeyValue{K: k("m"), V: kv.Put{Value: []byte("vm"), Time: t8(1)}},
	}

	entries, err := Assign(stream, targets, false, slice.DefaultComparator)
	require.NoError(t, err)

	total := 0
	for _, e := range entries {
		total += len(e.Items)
		if e.IsGap {
			continue
		}
		tgt := targets[e.TargetIndex]
		for _, item := range e.Items {
			key := item.Key()
			require.True(t, slice.DefaultComparator(key, tgt.MinKey) >= 0)
			if e.TargetIndex+1 < len(targets) {
				next := targets[e.TargetIndex+1]
				crossesNext := slice.DefaultComparator(key, next.MinKey) >= 0
				withinT := slice.DefaultComparator(key, tgt.MaxKey) <= 0
				require.True(t, !crossesNext || withinT)
			}
		}
	}
	require.Equal(t, len(stream), total)
}

func TestAssign_NoTargetFatalWhenNoGaps(t *testing.T) {
	stream := []Assignable{KeyValue{K: k("x"), V: kv.Put{Value: []byte("vx"), Time: t8(1)}}}
	_, err := Assign(stream, nil, true, slice.DefaultComparator)
	require.Error(t, err)
}

func TestAssign_SubSegmentExplodesWhenSpreading(t *testing.T) {
	targets := []Target{
		{MinKey: k("a"), MaxKey: k("m")},
		{MinKey: k("n"), MaxKey: k("z")},
	}
	sub := SubSegment{
		MinKey:     k("a"),
		MaxKey:     k("q"),
		MaxIsRange: false,
		Items: []Assignable{
			KeyValue{K: k("a"), V: kv.Put{Value: []byte("1"), Time: t8(1)}},
			KeyValue{K: k("p"), V: kv.Put{Value: []byte("2"), Time: t8(1)}},
		},
	}

	entries, err := Assign([]Assignable{sub}, targets, true, slice.DefaultComparator)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, 0, entries[0].TargetIndex)
	require.Equal(t, k("a"), entries[0].Items[0].Key())
	require.Equal(t, 1, entries[1].TargetIndex)
	require.Equal(t, k("p"), entries[1].Items[0].Key())
}
