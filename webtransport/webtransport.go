package webtransport

import (
	"context"
	"crypto/tls"
	"net/http"

	"github.com/okdaichi/transfork/quic"
)

// Server turns HTTP/3 extended CONNECT requests into sessions.
type Server interface {
	// Upgrade accepts the request in r as a WebTransport session.
	Upgrade(w http.ResponseWriter, r *http.Request) (quic.Connection, error)

	// ServeQUICConn runs HTTP/3 on a connection that negotiated h3.
	ServeQUICConn(conn quic.Connection) error

	Close() error
}

// DialAddrFunc opens a session to the https URL addr and returns the
// CONNECT response along with the session.
type DialAddrFunc func(ctx context.Context, addr string, header http.Header, tlsConfig *tls.Config) (*http.Response, quic.Connection, error)
