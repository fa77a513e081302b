package kvstore

import (
	"context"
	"testing"

	"github.com/akulikov-dev/localchat/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemory()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v1", v)

	require.NoError(t, s.Set(ctx, "k", "v2"))
	v, err = s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v2", v)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	require.ErrorIs(t, err, errs.ErrNotFound)

	// deleting again is a no-op
	require.NoError(t, s.Delete(ctx, "k"))
}
