package lock

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token,
// so an expired-then-reacquired lock is never released by the previous holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is a lock shared by every process talking to the same Redis.
type RedisLocker struct {
	rdb          *redis.Client
	prefix       string
	ttl          time.Duration
	wait         time.Duration
	pollInterval time.Duration
}

// RedisOptions configures a RedisLocker.
type RedisOptions struct {
	Prefix       string        // Prepended to every key
	TTL          time.Duration // Expiry of a held lock, in case the holder dies
	Wait         time.Duration // Acquire wait bound
	PollInterval time.Duration // Delay between SET NX attempts
}

func NewRedisLocker(rdb *redis.Client, opts RedisOptions) *RedisLocker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 50 * time.Millisecond
	}
	return &RedisLocker{
		rdb:          rdb,
		prefix:       opts.Prefix,
		ttl:          opts.TTL,
		wait:         opts.Wait,
		pollInterval: opts.PollInterval,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ok, err := l.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", fullKey, err)
		}
		if ok {
			return l.releaser(fullKey, token), nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrTimeout
		}

		timer := time.NewTimer(min(l.pollInterval, remaining))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

func (l *RedisLocker) releaser(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled; release on a fresh one.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
				log.Printf("lock_release_failed key=%s error=%q", key, err.Error())
			}
		})
	}
}
