package async

import "sync"

// Notify wakes every goroutine currently waiting on it.
// The zero value is ready to use.
type Notify struct {
	mu     sync.Mutex
	ch     chan struct{}
	closed bool
}

// Wait returns a channel that is closed by the next Wake or by Close.
func (n *Notify) Wait() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ch == nil {
		n.ch = make(chan struct{})
		if n.closed {
			close(n.ch)
		}
	}
	return n.ch
}

// Wake releases the current waiters. It fails once n is closed.
func (n *Notify) Wake() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}

	if n.ch != nil {
		close(n.ch)
		n.ch = nil
	}
	return nil
}

// Close releases the current waiters; later calls to Wait return
// immediately.
func (n *Notify) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true

	if n.ch != nil {
		close(n.ch)
	}
}
