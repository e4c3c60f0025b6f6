package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"route-scheduling-service/internal/domain"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	ctx := context.Background()
	locks := newKeyLock()

	release, err := locks.acquire(ctx, "route|r1", time.Second)
	require.NoError(t, err)

	_, err = locks.acquire(ctx, "route|r1", 20*time.Millisecond)
	require.ErrorIs(t, err, domain.ErrBusy)

	// A different key is unaffected by the held lock.
	releaseOther, err := locks.acquire(ctx, "route|r2", 20*time.Millisecond)
	require.NoError(t, err)
	releaseOther()

	release()
	release, err = locks.acquire(ctx, "route|r1", 20*time.Millisecond)
	require.NoError(t, err)
	release()
}

func TestKeyLockHonorsCallerCancellation(t *testing.T) {
	locks := newKeyLock()

	release, err := locks.acquire(context.Background(), "route|r1", time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = locks.acquire(ctx, "route|r1", time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWithRetryRetriesBusyOnly(t *testing.T) {
	ctx := context.Background()
	policy := retryPolicy{Attempts: 3, Backoff: time.Millisecond}

	calls := 0
	err := withRetry(ctx, policy, func() error {
		calls++
		if calls < 3 {
			return domain.ErrBusy
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)

	calls = 0
	err = withRetry(ctx, policy, func() error {
		calls++
		return domain.ErrBusy
	})
	require.ErrorIs(t, err, domain.ErrBusy)
	require.Equal(t, 3, calls)

	calls = 0
	sentinel := errors.New("boom")
	err = withRetry(ctx, policy, func() error {
		calls++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 1, calls)
}
