// Package completion provides a one-shot result signal. A Signal is completed at
// most once; later attempts are ignored and counted.
package completion

import (
	"context"
	"sync"
	"sync/atomic"
)

type Signal[T any] struct {
	once     sync.Once
	done     chan struct{}
	value    T
	attempts atomic.Int32
}

func New[T any]() *Signal[T] {
	return &Signal[T]{done: make(chan struct{})}
}

// Completed returns a signal that already holds v.
func Completed[T any](v T) *Signal[T] {
	s := New[T]()
	s.Complete(v)
	return s
}

// Complete stores v and releases waiters. It reports whether this call won.
func (s *Signal[T]) Complete(v T) bool {
	s.attempts.Add(1)
	won := false
	s.once.Do(func() {
		s.value = v
		close(s.done)
		won = true
	})
	return won
}

func (s *Signal[T]) Done() <-chan struct{} {
	return s.done
}

// Value returns the stored value once Done is closed; before that it reports false.
func (s *Signal[T]) Value() (T, bool) {
	select {
	case <-s.done:
		return s.value, true
	default:
		var zero T
		return zero, false
	}
}

func (s *Signal[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-s.done:
		return s.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Attempts is the number of Complete calls, including ignored ones.
func (s *Signal[T]) Attempts() int {
	return int(s.attempts.Load())
}
