package block

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFooterRoundTrip(t *testing.T) {
	hashHandle := BlockHandle{Offset: 100, Length: 50}
	bloomHandle := BlockHandle{Offset: 300, Length: 20}
	f := Footer{
		KeyValueCount:         42,
		BloomFilterItemsCount: 40,
		HasRange:              true,
		HasPut:                true,
		CreatedInLevel:        2,
		SortedIndex:           BlockHandle{Offset: 0, Length: 90},
		HashIndex:             &hashHandle,
		BinarySearchIndex:     nil,
		BloomFilter:           &bloomHandle,
		Values:                nil,
	}
	_, payload := f.Build()
	got, err := DecodeFooter(payload)
	require.NoError(t, err)
	require.Equal(t, f, got)
}
