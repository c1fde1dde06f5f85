package editor

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Lock is a mutual exclusion lock that grants ownership in arrival
// order. It is a weighted semaphore of size one: waiters are served
// first come, first served, and a waiter whose context ends leaves the
// queue without taking the lock.
//
// The zero value is an unlocked Lock.
type Lock struct {
	once    sync.Once
	sem     *semaphore.Weighted
	waiting atomic.Int64
}

func (l *Lock) weighted() *semaphore.Weighted {
	l.once.Do(func() { l.sem = semaphore.NewWeighted(1) })
	return l.sem
}

// Lock acquires the lock, waiting behind earlier callers. It returns
// ctx.Err() if the context ends first, in which case the lock is not
// held.
func (l *Lock) Lock(ctx context.Context) error {
	sem := l.weighted()
	if sem.TryAcquire(1) {
		return nil
	}
	l.waiting.Add(1)
	defer l.waiting.Add(-1)
	return sem.Acquire(ctx, 1)
}

// Unlock releases the lock to the longest waiting caller. It panics if
// the lock is not held.
func (l *Lock) Unlock() {
	l.weighted().Release(1)
}

// Waiting returns the number of callers queued for the lock.
func (l *Lock) Waiting() int {
	return int(l.waiting.Load())
}

// Do runs fn while holding the lock.
func (l *Lock) Do(ctx context.Context, fn func() error) error {
	if err := l.Lock(ctx); err != nil {
		return err
	}
	defer l.Unlock()
	return fn()
}
