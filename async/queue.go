package async

import (
	"context"
	"io"
	"sync"
)

// Queue is a bounded FIFO between producers and consumers.
type Queue[T any] struct {
	ch   chan T
	done chan struct{}

	mu     sync.Mutex
	closed bool
	err    error
}

// NewQueue creates a queue that holds up to capacity items.
// A capacity below 1 is treated as 1.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
}

// Push appends v, blocking while the queue is full.
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	if q.Closed() {
		return ErrClosed
	}

	select {
	case q.ch <- v:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns the oldest item, blocking while the queue is empty.
// After Close it drains the remaining items and then returns io.EOF.
// After Abort it returns the abort error.
func (q *Queue[T]) Next(ctx context.Context) (T, error) {
	var zero T

	if err := q.aborted(); err != nil {
		return zero, err
	}

	select {
	case v := <-q.ch:
		return v, nil
	case <-q.done:
		if err := q.aborted(); err != nil {
			return zero, err
		}
		select {
		case v := <-q.ch:
			return v, nil
		default:
			return zero, io.EOF
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close stops new pushes. Items already queued are still delivered.
func (q *Queue[T]) Close() {
	q.finish(io.EOF)
}

// Abort stops the queue with err. Items already queued are discarded.
func (q *Queue[T]) Abort(err error) {
	if err == nil {
		err = io.EOF
	}
	q.finish(err)
}

func (q *Queue[T]) finish(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.err = err
	close(q.done)
}

func (q *Queue[T]) aborted() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err == nil || q.err == io.EOF {
		return nil
	}
	return q.err
}

func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}

// Len returns the number of items waiting to be read.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Done returns a channel that is closed by Close or Abort.
func (q *Queue[T]) Done() <-chan struct{} {
	return q.done
}
