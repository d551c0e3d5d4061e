package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker serializes holders of the same key inside one process.
// Entries are reference counted so the map only holds keys that are held or awaited.
type MemoryLocker struct {
	wait time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		wait:    wait,
		entries: make(map[string]*entry),
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	e := l.ref(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
	case <-timer.C:
		l.unref(key)
		return nil, ErrTimeout
	case <-ctx.Done():
		l.unref(key)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.unref(key)
		})
	}, nil
}

func (l *MemoryLocker) ref(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *MemoryLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// held reports how many keys are currently held or awaited.
func (l *MemoryLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
