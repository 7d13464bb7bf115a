package common

import (
	"context"
	"errors"
	"time"

	"github.com/puzpuzpuz/xsync"
)

var ErrLockTimeout = errors.New("lock wait timed out")

// KeyLocker serializes critical sections per key. Sections on different keys
// never block each other. Acquire waits at most the given timeout, so a
// caller stuck behind a hot key fails fast instead of blocking forever.
type KeyLocker struct {
	locks *xsync.MapOf[string, chan struct{}]
}

func NewKeyLocker() *KeyLocker {
	return &KeyLocker{locks: xsync.NewMapOf[chan struct{}]()}
}

func (l *KeyLocker) Acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch, _ := l.locks.LoadOrStore(key, make(chan struct{}, 1))

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *KeyLocker) Release(key string) {
	ch, ok := l.locks.Load(key)
	if !ok {
		return
	}

	select {
	case <-ch:
	default:
	}
}
