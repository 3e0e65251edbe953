package transfork

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/okdaichi/transfork/quic"
	"github.com/okdaichi/transfork/quic/quicgo"
	"github.com/okdaichi/transfork/transfork/internal/message"
	"github.com/okdaichi/transfork/webtransport"
	"github.com/okdaichi/transfork/webtransport/webtransportgo"
	"github.com/quic-go/quic-go/http3"
)

// Server accepts transfork connections over native QUIC and WebTransport.
type Server struct {
	/*
	 * Server's Address
	 */
	Addr string

	/*
	 * TLS configuration
	 */
	TLSConfig *tls.Config

	/*
	 * QUIC configuration
	 */
	QUICConfig *quic.Config

	/*
	 * Transfork configuration
	 */
	Config *Config

	/*
	 * Logger
	 * If nil, Config.Logger is used.
	 */
	Logger *slog.Logger

	/*
	 * Handler
	 * Handler is called in its own goroutine for every established
	 * connection. The connection is closed when Handler returns.
	 */
	Handler func(conn *Connection)

	/*
	 * CheckHTTPOrigin validates the Origin header of WebTransport requests.
	 * If nil, the webtransport-go default is used.
	 */
	CheckHTTPOrigin func(*http.Request) bool

	/*
	 * WebTransport Server
	 * If nil, a webtransport-go server routing to ServeWebTransport is used.
	 */
	WebTransportServer webtransport.Server

	/*
	 * Listen function
	 * If nil, quic-go is used.
	 */
	ListenFunc quic.ListenAddrFunc

	initOnce sync.Once

	mu        sync.Mutex
	listeners map[quic.Listener]struct{}
	conns     map[*Connection]struct{}

	inShutdown atomic.Bool
}

func (s *Server) init() {
	s.initOnce.Do(func() {
		s.listeners = make(map[quic.Listener]struct{})
		s.conns = make(map[*Connection]struct{})

		if s.WebTransportServer == nil {
			s.WebTransportServer = webtransportgo.NewServer(
				s.Addr,
				s.TLSConfig,
				s.QUICConfig,
				http.HandlerFunc(s.serveHTTP),
				s.CheckHTTPOrigin,
			)
		}

		s.logger().Debug("initialized server")
	})
}

func (s *Server) logger() *slog.Logger {
	logger := s.Logger
	if logger == nil {
		logger = s.Config.logger()
	}
	return logger.With("address", s.Addr)
}

// ListenAndServe listens on Addr and serves both native QUIC and WebTransport
// connections, selected by ALPN.
func (s *Server) ListenAndServe() error {
	if s.shuttingDown() {
		return ErrServerClosed
	}

	if s.TLSConfig == nil {
		return errors.New("transfork: TLS configuration is required")
	}

	s.init()

	tlsConfig := s.TLSConfig.Clone()
	tlsConfig.NextProtos = []string{NextProtoMOQ, http3.NextProtoH3}

	var quicConfig *quic.Config
	if s.QUICConfig != nil {
		quicConfig = s.QUICConfig.Clone()
	} else {
		quicConfig = &quic.Config{}
	}
	// Required by WebTransport.
	quicConfig.EnableDatagrams = true

	listen := s.ListenFunc
	if listen == nil {
		listen = quicgo.ListenAddrEarly
	}

	ln, err := listen(s.Addr, tlsConfig, quicConfig)
	if err != nil {
		s.logger().Error("failed to start QUIC listener", "error", err)
		return err
	}

	return s.ServeQUICListener(ln)
}

// ServeQUICListener accepts connections from ln until it fails or the server
// is closed.
func (s *Server) ServeQUICListener(ln quic.Listener) error {
	if s.shuttingDown() {
		return ErrServerClosed
	}

	s.init()

	s.addListener(ln)
	defer s.removeListener(ln)

	logger := s.logger()
	logger.Info("listening", "local_address", ln.Addr())

	for {
		conn, err := ln.Accept(context.Background())
		if err != nil {
			if s.shuttingDown() {
				return ErrServerClosed
			}
			logger.Error("failed to accept QUIC connection", "error", err)
			return err
		}

		go func() {
			if err := s.ServeQUICConn(conn); err != nil {
				logger.Debug("failed to serve connection",
					"remote_address", conn.RemoteAddr(),
					"error", err,
				)
			}
		}()
	}
}

// ServeQUICConn serves a single QUIC connection according to its ALPN.
func (s *Server) ServeQUICConn(conn quic.Connection) error {
	if s.shuttingDown() {
		return ErrServerClosed
	}

	s.init()

	switch protocol := conn.ConnectionState().TLS.NegotiatedProtocol; protocol {
	case http3.NextProtoH3:
		return s.WebTransportServer.ServeQUICConn(conn)
	case NextProtoMOQ:
		c, err := s.Accept(context.Background(), conn)
		if err != nil {
			return err
		}
		s.serve(c)
		return nil
	default:
		conn.CloseWithError(quic.ApplicationErrorCode(ProtocolViolationSessionErrorCode), "unsupported protocol")
		return fmt.Errorf("transfork: unsupported protocol %q", protocol)
	}
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if err := s.ServeWebTransport(w, r); err != nil {
		s.logger().Debug("failed to serve WebTransport request",
			"remote_address", r.RemoteAddr,
			"error", err,
		)
	}
}

// ServeWebTransport upgrades r to a WebTransport session and serves it.
func (s *Server) ServeWebTransport(w http.ResponseWriter, r *http.Request) error {
	if s.shuttingDown() {
		http.Error(w, "server closed", http.StatusServiceUnavailable)
		return ErrServerClosed
	}

	s.init()

	conn, err := s.WebTransportServer.Upgrade(w, r)
	if err != nil {
		return err
	}

	c, err := s.Accept(r.Context(), conn)
	if err != nil {
		return err
	}

	s.serve(c)
	return nil
}

func (s *Server) serve(c *Connection) {
	s.addConn(c)

	go func() {
		defer s.removeConn(c)

		if s.Handler != nil {
			s.Handler(c)
			c.Close()
			return
		}

		c.Closed(context.Background())
	}()
}

// Accept performs the server side of the session handshake on conn.
// The connection is closed when the handshake fails.
func (s *Server) Accept(ctx context.Context, conn quic.Connection) (*Connection, error) {
	logger := s.logger().With("remote_address", conn.RemoteAddr())

	ctx, cancel := context.WithTimeout(ctx, s.Config.setupTimeout())
	defer cancel()

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		logger.Error("failed to accept session stream", "error", err)
		conn.CloseWithError(quic.ApplicationErrorCode(SetupFailedErrorCode), SetupFailedErrorCode.String())
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		stream.CancelRead(quic.StreamErrorCode(NoErrorCode))
	})
	session, _, msg, err := acceptStream(stream)
	stop()

	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		logger.Error("failed to read session client message", "error", err)
		conn.CloseWithError(quic.ApplicationErrorCode(sessionErrorCode(err)), err.Error())
		return nil, err
	}

	scm, ok := msg.(*message.SessionClientMessage)
	if !ok {
		err := ProtocolError{Reason: "first stream is not a session stream"}
		logger.Error("session setup failed", "error", err)
		conn.CloseWithError(quic.ApplicationErrorCode(ProtocolViolationSessionErrorCode), err.Error())
		return nil, err
	}

	version, ok := s.selectVersion(scm.SupportedVersions)
	if !ok {
		logger.Error("no mutually supported version", "offered", scm.SupportedVersions)
		conn.CloseWithError(quic.ApplicationErrorCode(UnsupportedVersionErrorCode), UnsupportedVersionErrorCode.String())
		return nil, ErrUnsupportedVersion
	}

	err = message.SessionServerMessage{SelectedVersion: uint64(version)}.Encode(session.Writer)
	if err != nil {
		logger.Error("failed to send session server message", "error", err)
		conn.CloseWithError(quic.ApplicationErrorCode(SetupFailedErrorCode), SetupFailedErrorCode.String())
		return nil, err
	}

	return newConnection(conn, session, version, s.Config, logger), nil
}

// selectVersion picks the first offered version the server supports.
func (s *Server) selectVersion(offered []uint64) (Version, bool) {
	supported := s.Config.versions()
	for _, v := range offered {
		if slices.Contains(supported, Version(v)) {
			return Version(v), true
		}
	}
	return 0, false
}

// Close stops every listener and closes every connection.
func (s *Server) Close() error {
	s.inShutdown.Store(true)

	s.init()

	s.mu.Lock()
	listeners := make([]quic.Listener, 0, len(s.listeners))
	for ln := range s.listeners {
		listeners = append(listeners, ln)
	}
	conns := make([]*Connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.logger().Info("closing server",
		"listeners", len(listeners),
		"connections", len(conns),
	)

	var errs []error
	for _, ln := range listeners {
		errs = append(errs, ln.Close())
	}
	for _, c := range conns {
		errs = append(errs, c.Close())
	}
	errs = append(errs, s.WebTransportServer.Close())

	return errors.Join(errs...)
}

func (s *Server) addListener(ln quic.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners[ln] = struct{}{}
}

func (s *Server) removeListener(ln quic.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.listeners, ln)
}

func (s *Server) addConn(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conns[c] = struct{}{}
}

func (s *Server) removeConn(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conns, c)
}

func (s *Server) shuttingDown() bool {
	return s.inShutdown.Load()
}
