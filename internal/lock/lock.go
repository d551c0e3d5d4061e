// Package lock provides exclusive named locks with a bounded acquire wait.
package lock

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTimeout = errors.New("lock: not acquired within wait bound")
	// ErrAbandoned wraps the context error when the caller gave up while waiting.
	ErrAbandoned = errors.New("lock: caller stopped waiting")
)

// Locker acquires an exclusive lock named by key.
// Acquire blocks at most for the locker's configured wait and returns ErrTimeout when the bound elapses.
// The returned release func must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// With runs fn while holding the lock named key. The lock is released on every exit path, including a panic in fn.
func With(ctx context.Context, l Locker, key string, fn func() error) error {
	release, err := l.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrAbandoned, err)
		}
		return err
	}
	defer release()

	return fn()
}

// NotAcquired reports whether err from With means the lock was never obtained,
// either because the wait bound elapsed or because the caller stopped waiting.
func NotAcquired(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrAbandoned)
}
