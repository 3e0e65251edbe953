package quic

import (
	"github.com/quic-go/quic-go"
)

// ApplicationError represents an application-level error in QUIC.
// WebTransport session errors are reported with this type too.
type ApplicationError = quic.ApplicationError

// TransportError represents a QUIC transport layer error.
type TransportError = quic.TransportError

// IdleTimeoutError indicates that the connection timed out due to inactivity.
type IdleTimeoutError = quic.IdleTimeoutError

// Error codes for QUIC application and stream operations.
type (
	// ApplicationErrorCode identifies application-defined errors.
	ApplicationErrorCode = quic.ApplicationErrorCode
	// StreamErrorCode identifies stream-specific errors.
	StreamErrorCode = quic.StreamErrorCode
)

// A StreamError is used for Stream.CancelRead and Stream.CancelWrite.
// It is also returned from Stream.Read and Stream.Write if the peer canceled reading or writing.
// WebTransport stream errors are reported with this type too.
type StreamError = quic.StreamError
