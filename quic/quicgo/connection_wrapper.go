package quicgo

import (
	"context"
	"net"

	"github.com/okdaichi/transfork/quic"
	quicgo_quicgo "github.com/quic-go/quic-go"
)

// WrapConnection exposes a quic-go connection as a quic.Connection.
// quic-go streams and errors already satisfy the quic types, so only the
// method signatures are adapted.
func WrapConnection(conn quicgo_quicgo.Connection) quic.Connection {
	if conn == nil {
		return nil
	}
	return &connection{conn: conn}
}

// UnwrapConnection returns the quic-go connection behind conn, or nil when
// conn was not created by WrapConnection.
func UnwrapConnection(conn quic.Connection) quicgo_quicgo.Connection {
	if c, ok := conn.(*connection); ok {
		return c.conn
	}
	return nil
}

var _ quic.Connection = (*connection)(nil)

type connection struct {
	conn quicgo_quicgo.Connection
}

func (c *connection) AcceptStream(ctx context.Context) (quic.Stream, error) {
	stream, err := c.conn.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (c *connection) AcceptUniStream(ctx context.Context) (quic.ReceiveStream, error) {
	stream, err := c.conn.AcceptUniStream(ctx)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (c *connection) OpenStreamSync(ctx context.Context) (quic.Stream, error) {
	stream, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (c *connection) OpenUniStreamSync(ctx context.Context) (quic.SendStream, error) {
	stream, err := c.conn.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (c *connection) CloseWithError(code quic.ApplicationErrorCode, reason string) error {
	return c.conn.CloseWithError(code, reason)
}

func (c *connection) Context() context.Context {
	return c.conn.Context()
}

func (c *connection) ConnectionState() quic.ConnectionState {
	return c.conn.ConnectionState()
}

func (c *connection) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
