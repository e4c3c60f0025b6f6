package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"route-scheduling-service/internal/domain"
)

// keyLock hands out one exclusive lock per string key, so operations on
// different routes or different (product, zone) pairs run in parallel while
// operations on the same resource serialize. Acquisition is bounded: a lock
// that cannot be taken within the wait surfaces as ErrBusy instead of
// blocking the caller indefinitely.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*semaphore.Weighted)}
}

// Entries are never evicted. The key space is bounded by the fleet, the
// product catalog and the zone list, all small.
func (k *keyLock) sem(key string) *semaphore.Weighted {
	k.mu.Lock()
	defer k.mu.Unlock()

	s, ok := k.locks[key]
	if !ok {
		s = semaphore.NewWeighted(1)
		k.locks[key] = s
	}
	return s
}

// acquire takes the lock for key, waiting at most wait. The returned release
// must be called exactly once.
func (k *keyLock) acquire(ctx context.Context, key string, wait time.Duration) (release func(), err error) {
	s := k.sem(key)

	acquireCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	if err := s.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("acquire lock %q: %w", key, domain.ErrBusy)
	}

	return func() { s.Release(1) }, nil
}
