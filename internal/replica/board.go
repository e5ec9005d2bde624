// Package replica holds records received from the authoritative match so that
// readers can wait for a value instead of polling for it.
package replica

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when a key is still absent after the wait deadline.
	ErrNotFound = errors.New("replica: record not found")
	// ErrClosed is returned by waits on a closed board.
	ErrClosed = errors.New("replica: board closed")
)

// Board is a keyed set of the latest replicated records.
// Publish overwrites; Await blocks until a key has a value.
type Board[K comparable, V any] struct {
	mu      sync.Mutex
	values  map[K]V
	waiters map[K][]chan V
	closed  chan struct{}
	once    sync.Once
}

// NewBoard returns an empty board.
func NewBoard[K comparable, V any]() *Board[K, V] {
	return &Board[K, V]{
		values:  make(map[K]V),
		waiters: make(map[K][]chan V),
		closed:  make(chan struct{}),
	}
}

// Publish stores value under key and wakes every waiter for it.
func (b *Board[K, V]) Publish(key K, value V) {
	b.mu.Lock()
	b.values[key] = value
	waiters := b.waiters[key]
	delete(b.waiters, key)
	b.mu.Unlock()

	for _, ch := range waiters {
		ch <- value
	}
}

// Get returns the current value without waiting.
func (b *Board[K, V]) Get(key K) (V, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[key]
	return v, ok
}

// Forget drops key, typically at the start of a new hand.
func (b *Board[K, V]) Forget(key K) {
	b.mu.Lock()
	delete(b.values, key)
	b.mu.Unlock()
}

// Await returns the value for key, waiting up to timeout for it to be published.
// A timeout <= 0 only checks the current value.
func (b *Board[K, V]) Await(ctx context.Context, key K, timeout time.Duration) (V, error) {
	var zero V

	b.mu.Lock()
	if v, ok := b.values[key]; ok {
		b.mu.Unlock()
		return v, nil
	}
	if timeout <= 0 {
		b.mu.Unlock()
		return zero, ErrNotFound
	}
	// Buffered so Publish never blocks on a waiter that already gave up.
	ch := make(chan V, 1)
	b.waiters[key] = append(b.waiters[key], ch)
	b.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v, nil
	case <-timer.C:
		b.drop(key, ch)
		return zero, ErrNotFound
	case <-ctx.Done():
		b.drop(key, ch)
		return zero, ctx.Err()
	case <-b.closed:
		b.drop(key, ch)
		return zero, ErrClosed
	}
}

// Close releases all pending waiters with ErrClosed.
func (b *Board[K, V]) Close() {
	b.once.Do(func() { close(b.closed) })
}

func (b *Board[K, V]) drop(key K, ch chan V) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.waiters[key]
	for i, c := range list {
		if c == ch {
			b.waiters[key] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(b.waiters[key]) == 0 {
		delete(b.waiters, key)
	}
}
