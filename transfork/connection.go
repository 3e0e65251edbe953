package transfork

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/okdaichi/transfork/async"
	"github.com/okdaichi/transfork/quic"
	"github.com/okdaichi/transfork/transfork/bitrate"
	"github.com/okdaichi/transfork/transfork/internal/message"
	"golang.org/x/sync/errgroup"
)

// Connection is an established transfork session.
// It publishes local tracks to the peer and subscribes to the peer's tracks.
type Connection struct {
	id      string
	conn    quic.Connection
	session *Stream
	version Version

	publisher  *publisher
	subscriber *subscriber

	logger  *slog.Logger
	metrics *Metrics

	// Serializes writes to the session stream.
	sessionMu sync.Mutex

	bitrate *bitrate.Monitor

	ctx    context.Context
	cancel context.CancelFunc
	closed *async.Deferred[struct{}]
	done   chan struct{}
}

func newConnection(conn quic.Connection, session *Stream, version Version, config *Config, logger *slog.Logger) *Connection {
	id := uuid.NewString()
	logger = logger.With(
		"connection_id", id,
		"version", version.String(),
	)

	ctx, cancel := context.WithCancel(context.Background())

	c := &Connection{
		id:         id,
		conn:       conn,
		session:    session,
		version:    version,
		publisher:  newPublisher(ctx, conn, logger, config.metrics()),
		subscriber: newSubscriber(ctx, conn, logger, config.metrics(), config.announceQueueSize()),
		logger:     logger,
		metrics:    config.metrics(),
		bitrate:    bitrate.NewMonitor(nil),
		ctx:        ctx,
		cancel:     cancel,
		closed:     async.NewDeferred[struct{}](),
		done:       make(chan struct{}),
	}

	c.metrics.connectionOpened()
	logger.Info("connection established")

	go c.run()

	return c
}

func (c *Connection) run() {
	defer close(c.done)

	g, ctx := errgroup.WithContext(c.ctx)

	g.Go(func() error {
		return c.fail(c.runSession())
	})
	g.Go(func() error {
		return c.fail(c.runBidi(ctx))
	})
	g.Go(func() error {
		return c.fail(c.runUni(ctx))
	})

	g.Wait()

	// The first loop error settled closed.
	_, err := c.closed.Wait(context.Background())

	closed := ClosedFrom(err)
	c.subscriber.close(closed)
	c.cancel()

	c.metrics.connectionClosed()

	if closed.Clean() {
		c.logger.Info("connection closed")
	} else {
		c.logger.Error("connection failed", "error", err)
	}
}

// fail ends the connection on the first loop error.
func (c *Connection) fail(err error) error {
	if err == nil {
		return nil
	}

	if isClean(err) {
		c.terminate(NoError, "", nil)
	} else {
		c.terminate(sessionErrorCode(err), err.Error(), err)
	}

	return err
}

func (c *Connection) terminate(code SessionErrorCode, reason string, err error) {
	var first bool
	if err == nil {
		first = c.closed.Resolve(struct{}{})
	} else {
		first = c.closed.Reject(err)
	}
	if !first {
		return
	}

	c.conn.CloseWithError(quic.ApplicationErrorCode(code), reason)
}

// runSession reads SessionInfo messages until the peer finishes the session
// stream.
func (c *Connection) runSession() error {
	for {
		done, err := c.session.Reader.Done()
		if err != nil {
			return err
		}
		if done {
			return io.EOF
		}

		var info message.SessionInfoMessage
		if err := info.Decode(c.session.Reader); err != nil {
			return decodeErr(err)
		}

		if c.bitrate.Record(info.Bitrate) {
			c.logger.Info("bitrate shifted", "bitrate", info.Bitrate)
		} else {
			c.logger.Debug("received session info", "bitrate", info.Bitrate)
		}
	}
}

func (c *Connection) runBidi(ctx context.Context) error {
	for {
		stream, err := c.conn.AcceptStream(ctx)
		if err != nil {
			return err
		}

		go c.handleStream(stream)
	}
}

func (c *Connection) runUni(ctx context.Context) error {
	for {
		stream, err := c.conn.AcceptUniStream(ctx)
		if err != nil {
			return err
		}

		go c.handleUniStream(stream)
	}
}

func (c *Connection) handleStream(stream quic.Stream) {
	logger := c.logger.With("stream_id", stream.StreamID())

	s, typ, msg, err := acceptStream(stream)
	if err != nil {
		logger.Warn("failed to accept stream", "error", err)
		s.CloseWithError(ClosedFrom(err).Code)
		return
	}

	c.metrics.streamAccepted(typ.String())
	logger.Debug("accepted stream", "type", typ.String())

	switch msg := msg.(type) {
	case *message.SessionClientMessage:
		err = ErrDuplicateSession
	case *message.AnnounceInterestMessage:
		err = c.publisher.runAnnounce(c.ctx, msg, s)
	case *message.SubscribeMessage:
		err = c.publisher.runSubscribe(c.ctx, msg, s)
	case *message.DatagramsMessage:
		err = c.publisher.runDatagrams(c.ctx, msg, s)
	case *message.FetchMessage:
		err = c.publisher.runFetch(c.ctx, msg, s)
	case *message.InfoRequestMessage:
		err = c.publisher.runInfo(c.ctx, msg, s)
	}

	if err != nil {
		closed := ClosedFrom(err)
		if closed.Code == ProtocolViolationErrorCode || closed.Code == InternalErrorCode {
			logger.Warn("stream failed", "type", typ.String(), "error", err)
		} else {
			logger.Debug("stream closed", "type", typ.String(), "error", err)
		}
		s.CloseWithError(closed.Code)
	}
}

func (c *Connection) handleUniStream(stream quic.ReceiveStream) {
	logger := c.logger.With("stream_id", stream.StreamID())

	r, msg, err := acceptUniStream(stream)
	if err != nil {
		logger.Warn("failed to accept unidirectional stream", "error", err)
		r.Stop(quic.StreamErrorCode(ClosedFrom(err).Code))
		return
	}

	c.metrics.streamAccepted("group")

	logger = logger.With(
		"subscribe_id", msg.SubscribeID,
		"group_sequence", msg.GroupSequence,
	)

	if err := c.subscriber.runGroup(r, msg); err != nil {
		logger.Debug("group stream stopped", "error", err)
		r.Stop(quic.StreamErrorCode(ClosedFrom(err).Code))
	}
}

// ID returns the identifier used in logs.
func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) Version() Version {
	return c.version
}

// Publish makes the track available to the peer until the track closes.
// It fails with ErrDuplicateAnnounce when the path is already published.
func (c *Connection) Publish(track *TrackReader) error {
	if c.ctx.Err() != nil {
		return ErrClosedConnection
	}
	return c.publisher.Publish(track)
}

// Announced returns the peer's tracks below prefix as they are announced.
func (c *Connection) Announced(ctx context.Context, prefix Path) (*async.Queue[*Announced], error) {
	if c.ctx.Err() != nil {
		return nil, ErrClosedConnection
	}
	return c.subscriber.Announced(ctx, prefix)
}

// Subscribe requests track from the peer. Received groups are written into
// track, which closes when the subscription ends.
func (c *Connection) Subscribe(ctx context.Context, track *Track) (*TrackReader, error) {
	if c.ctx.Err() != nil {
		return nil, ErrClosedConnection
	}
	return c.subscriber.Subscribe(ctx, track)
}

// TrackInfo describes a track published by the peer.
type TrackInfo struct {
	Priority TrackPriority
	Order    GroupOrder
	Latest   *GroupSequence
}

// Info asks the peer for the state of the track at path.
func (c *Connection) Info(ctx context.Context, path Path) (TrackInfo, error) {
	if c.ctx.Err() != nil {
		return TrackInfo{}, ErrClosedConnection
	}

	stream, err := openStream(ctx, c.conn, message.StreamTypeInfoRequest, message.InfoRequestMessage{
		Path: path,
	})
	if err != nil {
		return TrackInfo{}, err
	}
	defer stream.Close()

	msg, err := readInfo(ctx, stream)
	if err != nil {
		if ctx.Err() != nil {
			return TrackInfo{}, ctx.Err()
		}
		return TrackInfo{}, ClosedFrom(err)
	}

	info := TrackInfo{
		Priority: TrackPriority(msg.Priority),
		Order:    GroupOrder(msg.Order),
	}
	if msg.Latest != nil {
		latest := GroupSequence(*msg.Latest)
		info.Latest = &latest
	}
	return info, nil
}

// SendSessionInfo reports our bitrate estimate to the peer.
func (c *Connection) SendSessionInfo(bitrate uint64) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	return message.SessionInfoMessage{Bitrate: bitrate}.Encode(c.session.Writer)
}

// Bitrate returns the last bitrate reported by the peer.
func (c *Connection) Bitrate() uint64 {
	return c.bitrate.Latest()
}

// Close closes the connection without an error.
func (c *Connection) Close() error {
	return c.CloseWithError(NoError, "")
}

// CloseWithError closes the connection with code and waits for its loops to
// stop. Only the first close is sent to the peer.
func (c *Connection) CloseWithError(code SessionErrorCode, reason string) error {
	var err error
	if code != NoError {
		err = SessionError{&quic.ApplicationError{
			ErrorCode:    quic.ApplicationErrorCode(code),
			ErrorMessage: reason,
		}}
	}

	c.terminate(code, reason, err)
	<-c.done

	return nil
}

// Closed blocks until the connection ends. It returns nil after a clean
// close and the reason otherwise.
func (c *Connection) Closed(ctx context.Context) error {
	_, err := c.closed.Wait(ctx)
	return err
}

// Context is canceled once the connection has fully stopped.
func (c *Connection) Context() context.Context {
	return c.ctx
}

func isClean(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return true
	}

	var appErr *quic.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.ErrorCode == quic.ApplicationErrorCode(NoError)
	}

	return false
}

func sessionErrorCode(err error) SessionErrorCode {
	var sessErr SessionError
	if errors.As(err, &sessErr) {
		return sessErr.SessionErrorCode()
	}

	var appErr *quic.ApplicationError
	if errors.As(err, &appErr) {
		return SessionErrorCode(appErr.ErrorCode)
	}

	var protoErr ProtocolError
	if errors.As(err, &protoErr) {
		return ProtocolViolationSessionErrorCode
	}

	return InternalSessionErrorCode
}
