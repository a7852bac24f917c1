package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40, ^uint64(0)}
	for _, v := range values {
		buf := PutUvarint(nil, v)
		got, n, err := Uvarint(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestUvarintTruncated(t *testing.T) {
	_, _, err := Uvarint(nil)
	require.Error(t, err)
}

func TestVarintRoundTripNegative(t *testing.T) {
	buf := PutVarint(nil, -1)
	got, n, err := Varint(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, int64(-1), got)
}

func TestFixedWidthRoundTrip(t *testing.T) {
	buf := PutUint32(nil, 0xdeadbeef)
	got, err := Uint32(buf)
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), got)

	buf64 := PutUint64(nil, 0x1122334455667788)
	got64, err := Uint64(buf64)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1122334455667788), got64)
}

func TestUint32TooShort(t *testing.T) {
	_, err := Uint32([]byte{1, 2})
	require.Error(t, err)
}
