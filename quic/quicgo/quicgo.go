// Package quicgo adapts github.com/quic-go/quic-go to the quic interfaces.
package quicgo

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/okdaichi/transfork/quic"
	quicgo_quicgo "github.com/quic-go/quic-go"
)

var (
	_ quic.DialAddrFunc   = DialAddrEarly
	_ quic.ListenAddrFunc = ListenAddrEarly
)

// DialAddrEarly dials addr and returns as soon as 0-RTT data can be sent.
func DialAddrEarly(ctx context.Context, addr string, tlsConfig *tls.Config, quicConfig *quic.Config) (quic.Connection, error) {
	conn, err := quicgo_quicgo.DialAddrEarly(ctx, addr, tlsConfig, quicConfig)
	if err != nil {
		return nil, err
	}
	return WrapConnection(conn), nil
}

// ListenAddrEarly listens on addr and hands out connections before the
// handshake completes.
func ListenAddrEarly(addr string, tlsConfig *tls.Config, quicConfig *quic.Config) (quic.Listener, error) {
	ln, err := quicgo_quicgo.ListenAddrEarly(addr, tlsConfig, quicConfig)
	if err != nil {
		return nil, err
	}
	return &listener{ln: ln}, nil
}

type listener struct {
	ln *quicgo_quicgo.EarlyListener
}

func (l *listener) Accept(ctx context.Context) (quic.Connection, error) {
	conn, err := l.ln.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return WrapConnection(conn), nil
}

func (l *listener) Addr() net.Addr {
	return l.ln.Addr()
}

func (l *listener) Close() error {
	return l.ln.Close()
}
