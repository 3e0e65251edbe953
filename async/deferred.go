package async

import (
	"context"
	"sync"
)

// Deferred is a value that is resolved or rejected exactly once.
// The zero value is not usable; create one with NewDeferred.
type Deferred[T any] struct {
	mu    sync.Mutex
	done  chan struct{}
	value T
	err   error
}

func NewDeferred[T any]() *Deferred[T] {
	return &Deferred[T]{
		done: make(chan struct{}),
	}
}

// Resolve settles d with v. It reports false when d was already settled.
func (d *Deferred[T]) Resolve(v T) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.pending() {
		return false
	}

	d.value = v
	close(d.done)
	return true
}

// Reject settles d with err. It reports false when d was already settled.
func (d *Deferred[T]) Reject(err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.pending() {
		return false
	}

	d.err = err
	close(d.done)
	return true
}

func (d *Deferred[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.pending()
}

func (d *Deferred[T]) pending() bool {
	select {
	case <-d.done:
		return false
	default:
		return true
	}
}

// Done returns a channel that is closed once d is settled.
func (d *Deferred[T]) Done() <-chan struct{} {
	return d.done
}

// Wait blocks until d is settled or ctx is done.
func (d *Deferred[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.value, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
