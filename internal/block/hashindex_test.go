package block

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashIndexRoundTrip(t *testing.T) {
	w := NewHashIndexWriter(HashFormatReference, 16, 10, 0)
	offsets := make(map[string]int64)
	for i := 0; i < 10; i++ {
		key := []byte(fmt.Sprintf("key-%02d", i))
		offset := int64(i * 100)
		ok := w.Write(key, offset)
		require.True(t, ok)
		offsets[string(key)] = offset
	}

	h, table := w.Build()
	r, err := DecodeHashIndex(h.Extra, table)
	require.NoError(t, err)

	for k, wantOffset := range offsets {
		res, found, err := r.Get([]byte(k))
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, wantOffset, res.SortedIndexOffset)
	}
}

func TestHashIndexCopyKeyRoundTrip(t *testing.T) {
	w := NewHashIndexWriter(HashFormatCopyKey, 16, 10, 16)
	key := []byte("hello-key")
	require.True(t, w.Write(key, 42))

	h, table := w.Build()
	r, err := DecodeHashIndex(h.Extra, table)
	require.NoError(t, err)

	res, found, err := r.Get(key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(42), res.SortedIndexOffset)
	require.Equal(t, key, res.Key)
}

func TestHashIndexMissingKey(t *testing.T) {
	w := NewHashIndexWriter(HashFormatReference, 16, 10, 0)
	require.True(t, w.Write([]byte("present"), 1))

	h, table := w.Build()
	r, err := DecodeHashIndex(h.Extra, table)
	require.NoError(t, err)

	_, found, err := r.Get([]byte("absent"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestHashIndexDiscardBelowMinimumHits(t *testing.T) {
	w := NewHashIndexWriter(HashFormatReference, 16, 10, 0)
	w.Write([]byte("only-one"), 1)
	require.True(t, w.Discard(2))
	require.False(t, w.Discard(1))
}
