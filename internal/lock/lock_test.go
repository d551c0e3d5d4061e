package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T, wait time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisLocker(rdb, RedisOptions{
		Prefix:       "test_",
		TTL:          10 * time.Second,
		Wait:         wait,
		PollInterval: 5 * time.Millisecond,
	}), mr
}

// lockers returns one instance of every implementation with the given wait bound.
func lockers(t *testing.T, wait time.Duration) map[string]Locker {
	rl, _ := newRedisLocker(t, wait)
	return map[string]Locker{
		"memory": NewMemoryLocker(wait),
		"redis":  rl,
	}
}

func TestLocker_MutualExclusion(t *testing.T) {
	for name, l := range lockers(t, 5*time.Second) {
		t.Run(name, func(t *testing.T) {
			var inside, maxInside int32
			var wg sync.WaitGroup

			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := With(context.Background(), l, "office_1", func() error {
						n := atomic.AddInt32(&inside, 1)
						for {
							m := atomic.LoadInt32(&maxInside)
							if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
								break
							}
						}
						time.Sleep(time.Millisecond)
						atomic.AddInt32(&inside, -1)
						return nil
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(1), maxInside, "only one holder at a time")
		})
	}
}

func TestLocker_TimesOutWhenHeld(t *testing.T) {
	for name, l := range lockers(t, 30*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			release, err := l.Acquire(context.Background(), "office_7")
			require.NoError(t, err)
			defer release()

			start := time.Now()
			_, err = l.Acquire(context.Background(), "office_7")
			assert.ErrorIs(t, err, ErrTimeout)
			assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
		})
	}
}

func TestLocker_KeysAreIndependent(t *testing.T) {
	for name, l := range lockers(t, 30*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			releaseA, err := l.Acquire(context.Background(), "office_1")
			require.NoError(t, err)
			defer releaseA()

			releaseB, err := l.Acquire(context.Background(), "office_2")
			require.NoError(t, err, "a different key must not wait")
			releaseB()
		})
	}
}

func TestLocker_ReleasedAfterError(t *testing.T) {
	for name, l := range lockers(t, 30*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			boom := errors.New("boom")
			err := With(context.Background(), l, "office_3", func() error { return boom })
			assert.ErrorIs(t, err, boom)

			release, err := l.Acquire(context.Background(), "office_3")
			require.NoError(t, err, "lock must be free after fn failed")
			release()
		})
	}
}

func TestLocker_ReleasedAfterPanic(t *testing.T) {
	for name, l := range lockers(t, 30*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			assert.Panics(t, func() {
				_ = With(context.Background(), l, "office_4", func() error { panic("fault") })
			})

			release, err := l.Acquire(context.Background(), "office_4")
			require.NoError(t, err)
			release()
		})
	}
}

func TestLocker_ContextCancelled(t *testing.T) {
	for name, l := range lockers(t, time.Second) {
		t.Run(name, func(t *testing.T) {
			release, err := l.Acquire(context.Background(), "office_5")
			require.NoError(t, err)
			defer release()

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			_, err = l.Acquire(ctx, "office_5")
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		})
	}
}

func TestWith_AbandonedWaitIsNotAcquired(t *testing.T) {
	for name, l := range lockers(t, time.Second) {
		t.Run(name, func(t *testing.T) {
			release, err := l.Acquire(context.Background(), "office_6")
			require.NoError(t, err)
			defer release()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			called := false
			err = With(ctx, l, "office_6", func() error {
				called = true
				return nil
			})
			assert.ErrorIs(t, err, ErrAbandoned)
			assert.ErrorIs(t, err, context.Canceled)
			assert.True(t, NotAcquired(err))
			assert.False(t, called)
		})
	}
}

func TestNotAcquired(t *testing.T) {
	assert.True(t, NotAcquired(ErrTimeout))
	assert.False(t, NotAcquired(errors.New("redis: connection refused")))
	assert.False(t, NotAcquired(nil))
}

func TestMemoryLocker_ForgetsIdleKeys(t *testing.T) {
	l := NewMemoryLocker(20 * time.Millisecond)

	release, err := l.Acquire(context.Background(), "a")
	require.NoError(t, err)
	_, err = l.Acquire(context.Background(), "a")
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, l.held())

	release()
	release() // second call is a no-op
	assert.Equal(t, 0, l.held())
}

func TestRedisLocker_DoesNotReleaseForeignToken(t *testing.T) {
	l, mr := newRedisLocker(t, 20*time.Millisecond)

	release, err := l.Acquire(context.Background(), "office_9")
	require.NoError(t, err)

	// Simulate expiry followed by another holder taking the key.
	mr.FastForward(11 * time.Second)
	require.NoError(t, mr.Set("test_office_9", "someone-else"))

	release()

	got, err := mr.Get("test_office_9")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_SetsTTL(t *testing.T) {
	l, mr := newRedisLocker(t, 20*time.Millisecond)

	release, err := l.Acquire(context.Background(), "office_10")
	require.NoError(t, err)
	defer release()

	assert.Equal(t, 10*time.Second, mr.TTL("test_office_10"))
}
