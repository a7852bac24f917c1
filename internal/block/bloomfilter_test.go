package block

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBloomFilterNoFalseNegatives(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)
	keys := make([][]byte, 1000)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("key-%d", i))
		bf.Add(keys[i])
	}
	for _, k := range keys {
		require.True(t, bf.MightContain(k))
	}
}

func TestBloomFilterFalsePositiveRateBounded(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)
	for i := 0; i < 1000; i++ {
		bf.Add([]byte(fmt.Sprintf("key-%d", i)))
	}
	falsePositives := 0
	trials := 5000
	for i := 0; i < trials; i++ {
		k := []byte(fmt.Sprintf("absent-%d", i))
		if bf.MightContain(k) {
			falsePositives++
		}
	}
	rate := float64(falsePositives) / float64(trials)
	require.Less(t, rate, 0.05)
}

func TestBloomFilterRoundTrip(t *testing.T) {
	bf := NewBloomFilter(100, 0.01)
	bf.Add([]byte("alpha"))
	h, payload := bf.Build()

	decoded, err := DecodeBloomFilter(h.Extra, payload)
	require.NoError(t, err)
	require.True(t, decoded.MightContain([]byte("alpha")))
}
