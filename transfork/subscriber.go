package transfork

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/okdaichi/transfork/async"
	"github.com/okdaichi/transfork/quic"
	"github.com/okdaichi/transfork/transfork/internal/message"
	"github.com/okdaichi/transfork/transfork/internal/wire"
)

// subscriber consumes tracks from the remote peer.
type subscriber struct {
	// Canceled when the connection stops.
	ctx context.Context

	conn      quic.Connection
	logger    *slog.Logger
	metrics   *Metrics
	queueSize int

	mu            sync.Mutex
	nextID        uint64
	subscriptions map[uint64]*Track
	closed        *Closed
}

func newSubscriber(ctx context.Context, conn quic.Connection, logger *slog.Logger, metrics *Metrics, queueSize int) *subscriber {
	return &subscriber{
		ctx:           ctx,
		conn:          conn,
		logger:        logger,
		metrics:       metrics,
		queueSize:     queueSize,
		subscriptions: make(map[uint64]*Track),
	}
}

// Announced asks the peer for every track below prefix.
func (s *subscriber) Announced(ctx context.Context, prefix Path) (*async.Queue[*Announced], error) {
	stream, err := openStream(ctx, s.conn, message.StreamTypeAnnounceInterest, message.AnnounceInterestMessage{
		Prefix: prefix,
	})
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(
		"stream_id", stream.StreamID(),
		"prefix", prefix.String(),
	)
	logger.Debug("sent announce interest")

	queue := async.NewQueue[*Announced](s.queueSize)
	go func() {
		err := s.runAnnounced(prefix, stream, queue)
		if s.ctx.Err() != nil {
			err = s.closeErr()
		}
		if err != nil {
			logger.Warn("announce interest ended", "error", err)
			stream.CloseWithError(ClosedFrom(err).Code)
			queue.Abort(err)
			return
		}
		stream.Close()
		queue.Close()
	}()

	return queue, nil
}

func (s *subscriber) runAnnounced(prefix Path, stream *Stream, queue *async.Queue[*Announced]) error {
	active := make(map[string]*Announced)
	defer func() {
		for _, announced := range active {
			announced.Close()
		}
	}()

	for {
		done, err := stream.Reader.Done()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		var msg message.AnnounceMessage
		if err := msg.Decode(stream.Reader); err != nil {
			return decodeErr(err)
		}

		suffix := Path(msg.Suffix)
		key := suffix.key()

		switch msg.Status {
		case message.AnnounceStatusActive:
			if _, ok := active[key]; ok {
				return fmt.Errorf("%w: %s", ErrDuplicateAnnounced, suffix)
			}

			announced := newAnnounced(prefix.Join(suffix...))
			active[key] = announced

			err := queue.Push(s.ctx, announced)
			if errors.Is(err, async.ErrClosed) {
				// Nobody is listening anymore.
				return nil
			}
			if err != nil {
				return err
			}
		case message.AnnounceStatusClosed:
			announced, ok := active[key]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownAnnounced, suffix)
			}
			delete(active, key)
			announced.Close()
		}
	}
}

// Subscribe requests track from the peer and feeds the received groups
// into it.
func (s *subscriber) Subscribe(ctx context.Context, track *Track) (*TrackReader, error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscriptions[id] = track
	s.mu.Unlock()

	logger := s.logger.With(
		"subscribe_id", id,
		"path", track.Path.String(),
	)

	stream, err := openStream(ctx, s.conn, message.StreamTypeSubscribe, message.SubscribeMessage{
		SubscribeID: id,
		Path:        track.Path,
		SubscribeUpdateMessage: message.SubscribeUpdateMessage{
			Priority: uint64(track.Priority),
			Order:    uint64(track.Order()),
		},
	})
	if err != nil {
		s.remove(id)
		return nil, err
	}

	info, err := readInfo(ctx, stream)
	if err != nil {
		s.remove(id)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		closed := ClosedFrom(err)
		stream.CloseWithError(closed.Code)
		logger.Debug("subscription rejected", "error", err)
		return nil, fmt.Errorf("transfork: subscribe %s: %w", track.Path, closed)
	}

	track.SetOrder(GroupOrder(info.Order))
	reader := track.Reader()

	logger.Debug("subscribed",
		"order", track.Order().String(),
		"priority", info.Priority,
	)

	go s.watch(id, track, stream, logger)

	return reader, nil
}

// readInfo reads the Info reply. The stream is reset when ctx ends first.
func readInfo(ctx context.Context, stream *Stream) (message.InfoMessage, error) {
	stop := context.AfterFunc(ctx, func() {
		stream.CloseWithError(NoErrorCode)
	})
	defer stop()

	var info message.InfoMessage
	if err := info.Decode(stream.Reader); err != nil {
		return info, decodeErr(err)
	}
	return info, nil
}

// watch ties the lifetime of the subscribe stream to the track.
func (s *subscriber) watch(id uint64, track *Track, stream *Stream, logger *slog.Logger) {
	defer s.remove(id)

	remote := make(chan error, 1)
	go func() {
		remote <- readDrops(stream.Reader, logger)
	}()

	select {
	case <-track.Done():
		logger.Debug("unsubscribing")
		stream.Close()
	case err := <-remote:
		closed := ClosedFrom(err)
		track.CloseWithError(closed.Code)
		if closed.Clean() {
			stream.Close()
		} else {
			stream.CloseWithError(closed.Code)
		}
		logger.Debug("subscription ended", "code", closed.Code.String())
	}
}

// readDrops logs GroupDrop messages until the publisher finishes the stream.
func readDrops(r *wire.Reader, logger *slog.Logger) error {
	for {
		done, err := r.Done()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		var drop message.GroupDropMessage
		if err := drop.Decode(r); err != nil {
			return decodeErr(err)
		}

		logger.Debug("groups dropped",
			"group_sequence", drop.GroupSequence,
			"count", drop.Count,
			"code", ErrorCode(drop.ErrorCode).String(),
		)
	}
}

func (s *subscriber) remove(id uint64) {
	s.mu.Lock()
	delete(s.subscriptions, id)
	s.mu.Unlock()
}

// runGroup feeds a group stream into its subscription.
func (s *subscriber) runGroup(r *wire.Reader, msg *message.GroupMessage) error {
	s.mu.Lock()
	track, ok := s.subscriptions[msg.SubscribeID]
	s.mu.Unlock()

	if !ok {
		return &Closed{Code: NotFoundErrorCode}
	}

	group, err := track.CreateGroup(GroupSequence(msg.GroupSequence))
	if err != nil {
		return err
	}

	s.metrics.group(directionReceived)

	for {
		done, err := r.Done()
		if err != nil {
			group.CloseWithError(ClosedFrom(err).Code)
			return err
		}
		if done {
			group.Close()
			return nil
		}

		var frame message.FrameMessage
		if err := frame.Decode(r); err != nil {
			err = decodeErr(err)
			group.CloseWithError(ClosedFrom(err).Code)
			return err
		}

		if err := group.WriteFrame(frame.Payload); err != nil {
			// Every reader of the group is gone.
			return err
		}

		s.metrics.frame(directionReceived, len(frame.Payload))
	}
}

// close ends every subscription with closed.
func (s *subscriber) close(closed *Closed) {
	s.mu.Lock()
	s.closed = closed
	tracks := make([]*Track, 0, len(s.subscriptions))
	for id, track := range s.subscriptions {
		tracks = append(tracks, track)
		delete(s.subscriptions, id)
	}
	s.mu.Unlock()

	for _, track := range tracks {
		track.CloseWithError(closed.Code)
	}
}

// closeErr returns why the connection stopped, or nil after a clean close.
func (s *subscriber) closeErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed == nil || s.closed.Clean() {
		return nil
	}
	return s.closed
}
