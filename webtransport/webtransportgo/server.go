package webtransportgo

import (
	"crypto/tls"
	"errors"
	"net/http"

	"github.com/okdaichi/transfork/quic"
	"github.com/okdaichi/transfork/quic/quicgo"
	"github.com/okdaichi/transfork/webtransport"
	"github.com/quic-go/quic-go/http3"
	quicgo_webtransportgo "github.com/quic-go/webtransport-go"
)

// NewServer builds a WebTransport server on addr. Requests reach handler
// once they are routed by the HTTP/3 server; handler is expected to call
// Upgrade on the returned server.
func NewServer(addr string, tlsConfig *tls.Config, quicConfig *quic.Config, handler http.Handler, checkOrigin func(r *http.Request) bool) webtransport.Server {
	wtserver := &quicgo_webtransportgo.Server{
		H3: http3.Server{
			Addr:       addr,
			TLSConfig:  http3.ConfigureTLSConfig(tlsConfig),
			QUICConfig: quicConfig,
			Handler:    handler,
		},
		CheckOrigin: checkOrigin,
	}

	return WrapServer(wtserver)
}

func WrapServer(server *quicgo_webtransportgo.Server) webtransport.Server {
	return &serverWrapper{server: server}
}

var _ webtransport.Server = (*serverWrapper)(nil)

type serverWrapper struct {
	server *quicgo_webtransportgo.Server
}

func (wrapper *serverWrapper) Upgrade(w http.ResponseWriter, r *http.Request) (quic.Connection, error) {
	wtsess, err := wrapper.server.Upgrade(w, r)
	if err != nil {
		return nil, err
	}

	return WrapSession(wtsess), nil
}

func (wrapper *serverWrapper) ServeQUICConn(conn quic.Connection) error {
	qconn := quicgo.UnwrapConnection(conn)
	if qconn == nil {
		return errors.New("webtransportgo: connection was not created by quic-go")
	}
	return wrapper.server.ServeQUICConn(qconn)
}

func (wrapper *serverWrapper) Close() error {
	return wrapper.server.Close()
}
