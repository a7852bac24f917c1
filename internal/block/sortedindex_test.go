package block

import (
	"fmt"
	"testing"

	"github.com/iamNilotpal/swaydb/pkg/codec"
	"github.com/stretchr/testify/require"
)

func buildSortedIndex(t *testing.T, keys []string) (*SortedIndexWriter, []int64) {
	t.Helper()
	w := NewSortedIndexWriter()
	var offs []int64
	for i, k := range keys {
		off := w.Append(Entry{Key: []byte(k), Value: []byte(fmt.Sprintf("v%d", i))}, 0, false, codec.NewTime(uint64(i+1)))
		offs = append(offs, off)
	}
	return w, offs
}

func TestSortedIndexSearch(t *testing.T) {
	keys := []string{"a", "c", "e", "g"}
	w, _ := buildSortedIndex(t, keys)
	r := NewSortedIndexReader(w.Payload(), nil)

	e, ok, err := r.Search([]byte("e"), 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "e", string(e.Key))

	_, ok, err = r.Search([]byte("d"), 0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSortedIndexHigher(t *testing.T) {
	keys := []string{"a", "c", "e"}
	w, _ := buildSortedIndex(t, keys)
	r := NewSortedIndexReader(w.Payload(), nil)

	e, ok, err := r.SearchHigherSeekOne([]byte("b"), 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "c", string(e.Key))

	_, ok, err = r.SearchHigherSeekOne([]byte("z"), 0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSortedIndexLastEntryNextOffset(t *testing.T) {
	keys := []string{"a", "b"}
	w, offs := buildSortedIndex(t, keys)
	r := NewSortedIndexReader(w.Payload(), nil)

	last, err := r.ReadAt(offs[len(offs)-1])
	require.NoError(t, err)
	require.Equal(t, int64(-1), last.NextIndexOffset)
}
