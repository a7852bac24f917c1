package slice

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndBytes(t *testing.T) {
	s := Wrap([]byte("hello world"))
	require.Equal(t, "hello world", string(s.Bytes()))
	require.Equal(t, 11, s.Len())
}

func TestSliceNoCopy(t *testing.T) {
	backing := []byte("hello world")
	s := Wrap(backing)
	sub := s.Slice(6, 11)
	require.Equal(t, "world", string(sub.Bytes()))

	// Mutating the backing array is visible through sub: confirms no copy.
	backing[6] = 'W'
	require.Equal(t, "World", string(sub.Bytes()))
}

func TestTakeDrop(t *testing.T) {
	s := Wrap([]byte("abcdef"))
	require.Equal(t, "abc", string(s.Take(3).Bytes()))
	require.Equal(t, "def", string(s.Drop(3).Bytes()))
}

func TestCopyIsIndependent(t *testing.T) {
	backing := []byte("abc")
	s := Wrap(backing).Copy()
	backing[0] = 'z'
	require.Equal(t, "abc", string(s.Bytes()))
}

func TestCompareEqual(t *testing.T) {
	a := Wrap([]byte("abc"))
	b := Wrap([]byte("abd"))
	require.True(t, Compare(a, b) < 0)
	require.True(t, Equal(a, a))
	require.False(t, Equal(a, b))
}

func TestSliceOutOfRangePanics(t *testing.T) {
	s := Wrap([]byte("abc"))
	require.Panics(t, func() { s.Slice(0, 10) })
}
