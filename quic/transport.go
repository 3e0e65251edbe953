package quic

import (
	"context"
	"crypto/tls"
	"io"
	"net"

	"github.com/quic-go/quic-go"
)

type (
	Config          = quic.Config
	ConnectionState = quic.ConnectionState
	StreamID        = quic.StreamID
)

// Connection is a multiplexed stream transport: a native QUIC connection or
// a WebTransport session.
type Connection interface {
	AcceptStream(ctx context.Context) (Stream, error)
	AcceptUniStream(ctx context.Context) (ReceiveStream, error)

	// OpenStreamSync and OpenUniStreamSync block while the peer's stream
	// limit is reached.
	OpenStreamSync(ctx context.Context) (Stream, error)
	OpenUniStreamSync(ctx context.Context) (SendStream, error)

	// CloseWithError closes the connection and every stream on it.
	// Pending and later stream operations fail with an *ApplicationError.
	CloseWithError(code ApplicationErrorCode, reason string) error

	// Context is canceled when the connection closes.
	Context() context.Context

	ConnectionState() ConnectionState
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// SendStream is the sending half of a stream.
// Close finishes the stream cleanly. CancelWrite resets it with a code,
// which the peer observes as a *StreamError from Read.
type SendStream interface {
	io.WriteCloser
	StreamID() StreamID
	CancelWrite(code StreamErrorCode)
}

// ReceiveStream is the receiving half of a stream.
// CancelRead asks the peer to stop sending, which it observes as a
// *StreamError from Write.
type ReceiveStream interface {
	io.Reader
	StreamID() StreamID
	CancelRead(code StreamErrorCode)
}

// Stream is a bidirectional stream.
type Stream interface {
	SendStream
	ReceiveStream
}

// Listener accepts incoming connections.
type Listener interface {
	Accept(ctx context.Context) (Connection, error)
	Addr() net.Addr
	Close() error
}

type (
	DialAddrFunc   func(ctx context.Context, addr string, tlsConfig *tls.Config, quicConfig *Config) (Connection, error)
	ListenAddrFunc func(addr string, tlsConfig *tls.Config, quicConfig *Config) (Listener, error)
)
