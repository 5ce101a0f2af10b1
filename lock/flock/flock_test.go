package flock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batchkit/batchkit/lock"
)

func TestTryLockExclusive(t *testing.T) {
	ctx := t.Context()
	path := filepath.Join(t.TempDir(), "runs.lock")
	a := New(path)
	b := New(path)

	ok, err := a.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "same instance must not re-enter")

	ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second fd must see the flock")

	require.NoError(t, a.Unlock(ctx))

	ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, b.Unlock(ctx))
}

func TestLockHonoursContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.lock")
	l := New(path)
	require.NoError(t, l.Lock(t.Context()))
	defer l.Unlock(t.Context()) //nolint:errcheck

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	err := l.Lock(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithLockReleases(t *testing.T) {
	ctx := t.Context()
	l := New(filepath.Join(t.TempDir(), "runs.lock"))
	calls := 0
	for i := 0; i < 3; i++ {
		require.NoError(t, lock.WithLock(ctx, l, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 3, calls)
}
