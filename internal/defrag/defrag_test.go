package defrag

import (
	"bytes"
	"context"
	"testing"

	"github.com/iamNilotpal/swaydb/internal/assign"
	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/iamNilotpal/swaydb/internal/segment"
	"github.com/iamNilotpal/swaydb/pkg/codec"
	"github.com/iamNilotpal/swaydb/pkg/options"
	"github.com/stretchr/testify/require"
)

func buildTargetSegment(t *testing.T, id uint64, kvs []kvPair) *segment.SegmentRef {
	t.Helper()
	largest := 0
	for _, p := range kvs {
		if len(p.Key) > largest {
			largest = len(p.Key)
		}
	}
	b := segment.NewBuilder(options.BlockOptions{}, 0, len(kvs), largest)
	for _, p := range kvs {
		require.NoError(t, b.Append(p.Key, p.Value))
	}
	body, _, err := b.Build()
	require.NoError(t, err)

	ref, err := segment.OpenRef(id, "test", bytes.NewReader(body), int64(len(body)), nil, nil, nil)
	require.NoError(t, err)
	return ref
}

func TestMergeAgainstTarget_FixedOnFixed(t *testing.T) {
	target := buildTargetSegment(t, 1, []kvPair{
		{Key: []byte("a"), Value: kv.Put{Value: []byte("old-a"), Time: codec.NewTime(1)}},
		{Key: []byte("b"), Value: kv.Put{Value: []byte("old-b"), Time: codec.NewTime(1)}},
	})

	d := New(Config{})
	merged, err := d.mergeAgainstTarget(target, []kvPair{
		{Key: []byte("a"), Value: kv.Put{Value: []byte("new-a"), Time: codec.NewTime(2)}},
		{Key: []byte("c"), Value: kv.Put{Value: []byte("new-c"), Time: codec.NewTime(2)}},
	})
	require.NoError(t, err)
	require.Len(t, merged, 3)

	require.Equal(t, []byte("a"), merged[0].Key)
	require.Equal(t, []byte("new-a"), merged[0].Value.(kv.Put).Value)
	require.Equal(t, []byte("b"), merged[1].Key)
	require.Equal(t, []byte("old-b"), merged[1].Value.(kv.Put).Value)
	require.Equal(t, []byte("c"), merged[2].Key)
	require.Equal(t, []byte("new-c"), merged[2].Value.(kv.Put).Value)
}

func TestMergeAgainstTarget_RangeCoversExisting(t *testing.T) {
	target := buildTargetSegment(t, 1, []kvPair{
		{Key: []byte("a"), Value: kv.Put{Value: []byte("old-a"), Time: codec.NewTime(1)}},
		{Key: []byte("m"), Value: kv.Put{Value: []byte("old-m"), Time: codec.NewTime(1)}},
		{Key: []byte("z"), Value: kv.Put{Value: []byte("old-z"), Time: codec.NewTime(1)}},
	})

	d := New(Config{})
	r := kv.Range{
		FromKey: []byte("b"), ToKey: []byte("n"),
		RangeValue: kv.Remove{Time: codec.NewTime(2)},
		Time:       codec.NewTime(2),
	}
	merged, err := d.mergeAgainstTarget(target, []kvPair{{Key: r.FromKey, Value: r}})
	require.NoError(t, err)
	require.Len(t, merged, 4) // a, b (range entry itself), m (removed), z

	kept := map[string]kv.Value{}
	for _, p := range merged {
		kept[string(p.Key)] = p.Value
	}
	require.Equal(t, []byte("old-a"), kept["a"].(kv.Put).Value)
	_, isRemove := kept["m"].(kv.Remove)
	require.True(t, isRemove)
	require.Equal(t, []byte("old-z"), kept["z"].(kv.Put).Value)
}

func TestBuildFragment_RemoveDeletesDropsSurvivorlessTombstone(t *testing.T) {
	d := New(Config{})
	kvs := []kvPair{
		{Key: []byte("a"), Value: kv.Put{Value: []byte("v"), Time: codec.NewTime(1)}},
		{Key: []byte("b"), Value: kv.Remove{Time: codec.NewTime(2)}},
	}
	f, err := d.buildFragment(kvs, 0, true)
	require.NoError(t, err)
	require.NotNil(t, f.Bytes)

	opened, err := segment.OpenRef(1, "test", bytes.NewReader(f.Bytes), int64(len(f.Bytes)), nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, opened.KeyValueCount())
}

func TestRun_UntouchedTargetPassesThroughAsRemote(t *testing.T) {
	target := buildTargetSegment(t, 1, []kvPair{
		{Key: []byte("m"), Value: kv.Put{Value: []byte("v"), Time: codec.NewTime(1)}},
	})

	d := New(Config{})
	fragments, err := d.Run(
		context.Background(),
		nil, nil,
		nil,
		[]*segment.SegmentRef{target},
		false, 0,
	)
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	require.Same(t, target, fragments[0].Remote)
}

func TestRun_AssignedTargetProducesMergedFragment(t *testing.T) {
	target := buildTargetSegment(t, 1, []kvPair{
		{Key: []byte("a"), Value: kv.Put{Value: []byte("old"), Time: codec.NewTime(1)}},
		{Key: []byte("z"), Value: kv.Put{Value: []byte("old-z"), Time: codec.NewTime(1)}},
	})

	d := New(Config{})
	assignables := []assign.Assignable{
		assign.KeyValue{K: []byte("a"), V: kv.Put{Value: []byte("new"), Time: codec.NewTime(2)}},
	}
	fragments, err := d.Run(
		context.Background(),
		nil, nil,
		assignables,
		[]*segment.SegmentRef{target},
		false, 0,
	)
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	require.Nil(t, fragments[0].Remote)
	require.NotNil(t, fragments[0].Bytes)
}

func TestRun_HeadAndTailGapsBecomeFragments(t *testing.T) {
	target := buildTargetSegment(t, 1, []kvPair{
		{Key: []byte("m"), Value: kv.Put{Value: []byte("v"), Time: codec.NewTime(1)}},
	})

	d := New(Config{})
	head := []assign.Assignable{assign.KeyValue{K: []byte("a"), V: kv.Put{Value: []byte("head"), Time: codec.NewTime(1)}}}
	tail := []assign.Assignable{assign.KeyValue{K: []byte("z"), V: kv.Put{Value: []byte("tail"), Time: codec.NewTime(1)}}}

	fragments, err := d.Run(context.Background(), head, tail, nil, []*segment.SegmentRef{target}, false, 0)
	require.NoError(t, err)
	require.Len(t, fragments, 3)

	var minKeys [][]byte
	for _, f := range fragments {
		minKeys = append(minKeys, f.MinKey)
	}
	require.Equal(t, []byte("a"), minKeys[0])
	require.Equal(t, []byte("m"), minKeys[1])
	require.Equal(t, []byte("z"), minKeys[2])
}
