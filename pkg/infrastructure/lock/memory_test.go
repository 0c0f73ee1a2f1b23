package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

func TestMemoryLocker_SecondAcquireConflicts(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()

	release, err := locker.Acquire(ctx, "mrp:plan:SO-1", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "mrp:plan:SO-1", time.Minute)
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))

	// other keys are independent
	other, err := locker.Acquire(ctx, "mrp:plan:SO-2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	again, err := locker.Acquire(ctx, "mrp:plan:SO-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestMemoryLocker_ExpiredLeaseCanBeTaken(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()
	clock := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	locker.now = func() time.Time { return clock }

	stale, err := locker.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	clock = clock.Add(2 * time.Second)
	fresh, err := locker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	// the stale holder must not drop the new lease
	require.NoError(t, stale(ctx))
	_, err = locker.Acquire(ctx, "k", time.Minute)
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))

	require.NoError(t, fresh(ctx))
}

func TestMemoryLocker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryLocker().Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
