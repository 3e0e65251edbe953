package webtransportgo

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"

	"github.com/okdaichi/transfork/quic"
	"github.com/okdaichi/transfork/webtransport"
	quicgo_webtransportgo "github.com/quic-go/webtransport-go"
)

var _ webtransport.DialAddrFunc = Dial

// Dial opens a WebTransport session to addr, which must be an https URL.
func Dial(ctx context.Context, addr string, header http.Header, tlsConfig *tls.Config) (*http.Response, quic.Connection, error) {
	d := quicgo_webtransportgo.Dialer{
		TLSClientConfig: tlsConfig,
	}
	rsp, sess, err := d.Dial(ctx, addr, header)
	if err != nil {
		return rsp, nil, wrapError(err)
	}
	return rsp, WrapSession(sess), nil
}

// WrapSession exposes a WebTransport session as a quic.Connection.
// Session and stream errors are translated to the quic error types.
func WrapSession(sess *quicgo_webtransportgo.Session) quic.Connection {
	if sess == nil {
		return nil
	}
	return &session{sess: sess}
}

var _ quic.Connection = (*session)(nil)

type session struct {
	sess *quicgo_webtransportgo.Session
}

func (s *session) AcceptStream(ctx context.Context) (quic.Stream, error) {
	stream, err := s.sess.AcceptStream(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return &bidiStream{sendStream{stream}, receiveStream{stream}}, nil
}

func (s *session) AcceptUniStream(ctx context.Context) (quic.ReceiveStream, error) {
	stream, err := s.sess.AcceptUniStream(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return receiveStream{stream}, nil
}

func (s *session) OpenStreamSync(ctx context.Context) (quic.Stream, error) {
	stream, err := s.sess.OpenStreamSync(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return &bidiStream{sendStream{stream}, receiveStream{stream}}, nil
}

func (s *session) OpenUniStreamSync(ctx context.Context) (quic.SendStream, error) {
	stream, err := s.sess.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return sendStream{stream}, nil
}

func (s *session) CloseWithError(code quic.ApplicationErrorCode, reason string) error {
	return s.sess.CloseWithError(quicgo_webtransportgo.SessionErrorCode(code), reason)
}

func (s *session) Context() context.Context {
	return s.sess.Context()
}

func (s *session) ConnectionState() quic.ConnectionState {
	return s.sess.ConnectionState()
}

func (s *session) LocalAddr() net.Addr {
	return s.sess.LocalAddr()
}

func (s *session) RemoteAddr() net.Addr {
	return s.sess.RemoteAddr()
}
