package service

import (
	"context"
	"sync"
)

// keyedLocks hands out one exclusive section per key.  Each key owns a
// buffered channel of size one used as a semaphore; blocked goroutines are
// parked on the channel send, which the runtime wakes in FIFO order, so no
// waiter starves.  Entries are reference counted and dropped when idle so
// the table only holds keys under contention.
type keyedLocks[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

func newKeyedLocks[K comparable]() *keyedLocks[K] {
	return &keyedLocks[K]{entries: make(map[K]*lockEntry)}
}

// Lock blocks until the section for key is free or ctx is done.  The
// returned func releases the section and must be called exactly once.
func (l *keyedLocks[K]) Lock(ctx context.Context, key K) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(key, e)
		})
	}, nil
}

func (l *keyedLocks[K]) release(key K, e *lockEntry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}

// size reports how many keys are currently tracked.
func (l *keyedLocks[K]) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
