package transfork

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/okdaichi/transfork/quic"
)

// pipeConn is an in-memory quic.Connection. Streams are io.Pipes, so a write
// completes only once the peer has read it.
type pipeConn struct {
	peer *pipeConn
	link *pipeLink

	bidi chan quic.Stream
	uni  chan quic.ReceiveStream

	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

// pipeLink is shared by both ends of a connection pair.
type pipeLink struct {
	nextID atomic.Int64

	mu     sync.Mutex
	pipes  []*io.PipeWriter
	closed error
}

func (l *pipeLink) newPipe() (*io.PipeReader, *io.PipeWriter, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed != nil {
		return nil, nil, l.closed
	}

	r, w := io.Pipe()
	l.pipes = append(l.pipes, w)
	return r, w, nil
}

func (l *pipeLink) abort(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed != nil {
		return
	}
	l.closed = err

	// Pending and later reads fail with err.
	for _, w := range l.pipes {
		w.CloseWithError(err)
	}
}

func newPipeConnPair() (*pipeConn, *pipeConn) {
	link := &pipeLink{}
	a := newPipeConn(link)
	b := newPipeConn(link)
	a.peer = b
	b.peer = a
	return a, b
}

func newPipeConn(link *pipeLink) *pipeConn {
	ctx, cancel := context.WithCancel(context.Background())
	return &pipeConn{
		link:   link,
		bidi:   make(chan quic.Stream, 16),
		uni:    make(chan quic.ReceiveStream, 16),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *pipeConn) closeErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.err
}

func (c *pipeConn) close(err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return false
	}
	c.err = err
	c.cancel()
	return true
}

func (c *pipeConn) AcceptStream(ctx context.Context) (quic.Stream, error) {
	select {
	case stream := <-c.bidi:
		return stream, nil
	case <-c.ctx.Done():
		return nil, c.closeErr()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *pipeConn) AcceptUniStream(ctx context.Context) (quic.ReceiveStream, error) {
	select {
	case stream := <-c.uni:
		return stream, nil
	case <-c.ctx.Done():
		return nil, c.closeErr()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *pipeConn) CloseWithError(code quic.ApplicationErrorCode, msg string) error {
	local := &quic.ApplicationError{ErrorCode: code, ErrorMessage: msg}
	if !c.close(local) {
		return nil
	}
	c.peer.close(&quic.ApplicationError{ErrorCode: code, ErrorMessage: msg, Remote: true})
	c.link.abort(local)
	return nil
}

func (c *pipeConn) ConnectionState() quic.ConnectionState {
	return quic.ConnectionState{}
}

func (c *pipeConn) Context() context.Context {
	return c.ctx
}

func (c *pipeConn) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 4433}
}

func (c *pipeConn) RemoteAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 4434}
}

func (c *pipeConn) OpenStreamSync(ctx context.Context) (quic.Stream, error) {
	if err := c.closeErr(); err != nil {
		return nil, err
	}

	inR, inW, err := c.link.newPipe()
	if err != nil {
		return nil, err
	}
	outR, outW, err := c.link.newPipe()
	if err != nil {
		return nil, err
	}

	id := quic.StreamID(c.link.nextID.Add(1))
	local := &pipeStream{id: id, conn: c, r: inR, w: outW}
	remote := &pipeStream{id: id, conn: c.peer, r: outR, w: inW}

	select {
	case c.peer.bidi <- remote:
		return local, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *pipeConn) OpenUniStreamSync(ctx context.Context) (quic.SendStream, error) {
	if err := c.closeErr(); err != nil {
		return nil, err
	}

	r, w, err := c.link.newPipe()
	if err != nil {
		return nil, err
	}

	id := quic.StreamID(c.link.nextID.Add(1))

	select {
	case c.peer.uni <- &pipeStream{id: id, conn: c.peer, r: r}:
		return &pipeStream{id: id, conn: c, w: w}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ quic.Stream = (*pipeStream)(nil)

type pipeStream struct {
	id   quic.StreamID
	conn *pipeConn
	r    *io.PipeReader
	w    *io.PipeWriter
}

// connErr reports the close error of the owning side once the connection
// is closed, as QUIC does.
func (s *pipeStream) connErr(err error) error {
	if err == nil || errors.Is(err, io.EOF) {
		return err
	}
	if closeErr := s.conn.closeErr(); closeErr != nil {
		return closeErr
	}
	return err
}

func (s *pipeStream) StreamID() quic.StreamID {
	return s.id
}

func (s *pipeStream) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	return n, s.connErr(err)
}

func (s *pipeStream) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	return n, s.connErr(err)
}

func (s *pipeStream) Close() error {
	return s.w.Close()
}

func (s *pipeStream) CancelRead(code quic.StreamErrorCode) {
	s.r.CloseWithError(&quic.StreamError{StreamID: s.id, ErrorCode: code, Remote: true})
}

func (s *pipeStream) CancelWrite(code quic.StreamErrorCode) {
	s.w.CloseWithError(&quic.StreamError{StreamID: s.id, ErrorCode: code, Remote: true})
}
