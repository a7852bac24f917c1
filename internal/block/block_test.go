package block

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderEncodeDecode(t *testing.T) {
	h := Header{Format: FormatSortedIndex, AllocatedBytes: 1234, Compression: CompressionSnappy, Extra: []byte{1, 2, 3}}
	buf := h.Encode()

	got, rest, err := DecodeHeader(buf)
	require.NoError(t, err)
	require.Equal(t, h.Format, got.Format)
	require.Equal(t, h.AllocatedBytes, got.AllocatedBytes)
	require.Equal(t, h.Compression, got.Compression)
	require.Equal(t, h.Extra, rest)
}

func TestPayloadRoundTripWithCompression(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated, repeated, repeated")
	wrapped := WrapPayload(payload, SnappyCompressor{})
	got, err := UnwrapPayload(wrapped, SnappyCompressor{})
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestPayloadRoundTripWithoutCompression(t *testing.T) {
	payload := []byte("uncompressed payload")
	wrapped := WrapPayload(payload, nil)
	got, err := UnwrapPayload(wrapped, nil)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestPayloadCorruptionDetected(t *testing.T) {
	payload := []byte("some payload")
	wrapped := WrapPayload(payload, nil)
	wrapped[0] ^= 0xFF
	_, err := UnwrapPayload(wrapped, nil)
	require.Error(t, err)
}
