package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_KeyLocker_Acquire(t *testing.T) {
	ctx := context.Background()
	locker := NewKeyLocker()

	err := locker.Acquire(ctx, "auction1", time.Second)
	require.NoError(t, err)

	// The same key is held, a second acquire times out.
	err = locker.Acquire(ctx, "auction1", 50*time.Millisecond)
	require.ErrorIs(t, err, ErrLockTimeout)

	// A different key is never blocked.
	err = locker.Acquire(ctx, "auction2", 50*time.Millisecond)
	require.NoError(t, err)
	locker.Release("auction2")

	locker.Release("auction1")
	err = locker.Acquire(ctx, "auction1", 50*time.Millisecond)
	require.NoError(t, err)
	locker.Release("auction1")
}

func Test_KeyLocker_Acquire_cancelledContext(t *testing.T) {
	locker := NewKeyLocker()

	err := locker.Acquire(context.Background(), "auction1", time.Second)
	require.NoError(t, err)
	defer locker.Release("auction1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = locker.Acquire(ctx, "auction1", time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func Test_KeyLocker_Release_withoutAcquire(t *testing.T) {
	locker := NewKeyLocker()

	// Releasing a never-acquired key must not block or panic.
	locker.Release("unknown")
}
