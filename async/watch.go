package async

import (
	"sync"
)

// Watch holds a value and lets any number of observers wait for the next
// change.
type Watch[T any] struct {
	mu     sync.Mutex
	value  T
	next   chan struct{}
	closed bool
}

func NewWatch[T any](init T) *Watch[T] {
	return &Watch[T]{
		value: init,
		next:  make(chan struct{}),
	}
}

// Value returns the current value and a channel that is closed on the next
// Update or Close. The channel is nil once the watch is closed, meaning the
// returned value is final.
func (w *Watch[T]) Value() (T, <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return w.value, nil
	}
	return w.value, w.next
}

// Update replaces the value and wakes every observer.
func (w *Watch[T]) Update(v T) error {
	return w.UpdateFunc(func(T) T { return v })
}

// UpdateFunc replaces the value with f applied to the current value.
// f runs with the watch locked and must not call back into it.
func (w *Watch[T]) UpdateFunc(f func(T) T) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	w.value = f(w.value)
	close(w.next)
	w.next = make(chan struct{})

	return nil
}

// Close freezes the current value and wakes every observer.
// Calling Close more than once is a no-op.
func (w *Watch[T]) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	w.closed = true
	close(w.next)
}

func (w *Watch[T]) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.closed
}
