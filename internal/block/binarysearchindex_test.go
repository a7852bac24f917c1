package block

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/iamNilotpal/swaydb/pkg/codec"
	"github.com/stretchr/testify/require"
)

func codecTimeFor(i int) codec.Time {
	return codec.NewTime(uint64(i + 1))
}

func TestBinarySearchIndexSearch(t *testing.T) {
	siw := NewSortedIndexWriter()
	bsw := NewBinarySearchIndexWriter()
	keys := []string{"a", "c", "e", "g", "i"}
	for i, k := range keys {
		off := siw.Append(Entry{Key: []byte(k), Value: []byte(fmt.Sprintf("v%d", i))}, 0, false, codecTimeFor(i))
		bsw.Add(off)
	}
	sir := NewSortedIndexReader(siw.Payload(), nil)
	fetch := func(offset int64) ([]byte, error) {
		e, err := sir.ReadAt(offset)
		if err != nil {
			return nil, err
		}
		return e.Key, nil
	}

	h, payload := bsw.Build()
	bsr, err := DecodeBinarySearchIndex(h.Extra, payload)
	require.NoError(t, err)

	off, ok, err := bsr.Search([]byte("e"), fetch, bytes.Compare)
	require.NoError(t, err)
	require.True(t, ok)
	entry, err := sir.ReadAt(off)
	require.NoError(t, err)
	require.Equal(t, "e", string(entry.Key))

	_, ok, err = bsr.Search([]byte("d"), fetch, bytes.Compare)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBinarySearchIndexHigherLower(t *testing.T) {
	siw := NewSortedIndexWriter()
	bsw := NewBinarySearchIndexWriter()
	keys := []string{"b", "d", "f"}
	for i, k := range keys {
		off := siw.Append(Entry{Key: []byte(k)}, 0, false, codecTimeFor(i))
		bsw.Add(off)
	}
	sir := NewSortedIndexReader(siw.Payload(), nil)
	fetch := func(offset int64) ([]byte, error) {
		e, err := sir.ReadAt(offset)
		if err != nil {
			return nil, err
		}
		return e.Key, nil
	}
	h, payload := bsw.Build()
	bsr, err := DecodeBinarySearchIndex(h.Extra, payload)
	require.NoError(t, err)

	off, ok, err := bsr.SearchHigher([]byte("c"), fetch, bytes.Compare)
	require.NoError(t, err)
	require.True(t, ok)
	e, _ := sir.ReadAt(off)
	require.Equal(t, "d", string(e.Key))

	off, ok, err = bsr.SearchLower([]byte("e"), fetch, bytes.Compare)
	require.NoError(t, err)
	require.True(t, ok)
	e, _ = sir.ReadAt(off)
	require.Equal(t, "d", string(e.Key))
}
