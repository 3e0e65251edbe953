// Package async provides the small synchronization primitives the protocol
// engine is built on: a single-resolution future (Deferred), an observable
// value (Watch), a multi-waiter wakeup (Notify) and a bounded queue (Queue).
//
// All of them are safe for concurrent use and never block a caller that
// passes a cancelled context.
package async

import "errors"

// ErrClosed is returned when updating a primitive that has been closed.
var ErrClosed = errors.New("async: closed")
