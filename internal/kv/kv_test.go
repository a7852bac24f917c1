package kv

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeadlineExpiry(t *testing.T) {
	past := NewDeadline(time.Now().Add(-time.Hour))
	future := NewDeadline(time.Now().Add(time.Hour))

	require.True(t, past.IsExpired(time.Now()))
	require.False(t, future.IsExpired(time.Now()))
	require.False(t, NoDeadline.IsSet())
}

func TestEarlierDeadline(t *testing.T) {
	now := time.Now()
	soon := NewDeadline(now.Add(time.Minute))
	later := NewDeadline(now.Add(time.Hour))

	require.Equal(t, soon, Earlier(soon, later))
	require.Equal(t, soon, Earlier(later, soon))
	require.Equal(t, soon, Earlier(soon, NoDeadline))
	require.Equal(t, soon, Earlier(NoDeadline, soon))
}

func TestRangeContains(t *testing.T) {
	r := Range{FromKey: []byte("b"), ToKey: []byte("e")}
	require.True(t, r.Contains([]byte("b"), bytes.Compare))
	require.True(t, r.Contains([]byte("d"), bytes.Compare))
	require.False(t, r.Contains([]byte("e"), bytes.Compare))
	require.False(t, r.Contains([]byte("a"), bytes.Compare))
}

func TestVariantKinds(t *testing.T) {
	require.Equal(t, KindPut, Put{}.Kind())
	require.Equal(t, KindRemove, Remove{}.Kind())
	require.Equal(t, KindUpdate, Update{}.Kind())
	require.Equal(t, KindFunction, Function{}.Kind())
	require.Equal(t, KindPendingApply, PendingApply{}.Kind())
	require.Equal(t, KindRange, Range{}.Kind())
}
