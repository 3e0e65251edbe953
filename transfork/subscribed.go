package transfork

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/okdaichi/transfork/quic"
	"github.com/okdaichi/transfork/transfork/internal/message"
	"github.com/okdaichi/transfork/transfork/internal/wire"
)

// subscribed is a subscription served by the publisher.
// Each group is sent on its own unidirectional stream.
type subscribed struct {
	id      uint64
	reader  *TrackReader
	conn    quic.Connection
	logger  *slog.Logger
	metrics *Metrics

	mu     sync.Mutex
	update message.SubscribeUpdateMessage

	groups sync.WaitGroup
}

func newSubscribed(msg *message.SubscribeMessage, reader *TrackReader, conn quic.Connection, logger *slog.Logger, metrics *Metrics) *subscribed {
	return &subscribed{
		id:      msg.SubscribeID,
		reader:  reader,
		conn:    conn,
		logger:  logger,
		metrics: metrics,
		update:  msg.SubscribeUpdateMessage,
	}
}

// run sends groups until the track ends. Groups in flight are finished
// before it returns.
func (s *subscribed) run(ctx context.Context) error {
	defer s.groups.Wait()

	for {
		group, err := s.reader.NextGroup(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		s.groups.Add(1)
		go func() {
			defer s.groups.Done()
			s.sendGroup(ctx, group)
		}()
	}
}

func (s *subscribed) sendGroup(ctx context.Context, group *GroupReader) {
	defer group.Close()

	logger := s.logger.With(
		"group_sequence", group.Sequence(),
		"priority", s.priority(),
	)

	w, err := openUniStream(ctx, s.conn, message.GroupMessage{
		SubscribeID:   s.id,
		GroupSequence: uint64(group.Sequence()),
	})
	if err != nil {
		logger.Debug("failed to open group stream", "error", err)
		return
	}

	s.metrics.group(directionSent)

	for {
		frame, err := group.ReadFrame(ctx)
		if errors.Is(err, io.EOF) {
			w.Close()
			logger.Debug("sent group", "frames", group.Index())
			return
		}
		if err != nil {
			w.Reset(quic.StreamErrorCode(ClosedFrom(err).Code))
			logger.Debug("group aborted", "error", err)
			return
		}

		if err := (message.FrameMessage{Payload: frame}).Encode(w); err != nil {
			w.Reset(quic.StreamErrorCode(ClosedFrom(err).Code))
			logger.Debug("failed to write frame", "error", err)
			return
		}

		s.metrics.frame(directionSent, len(frame))
	}
}

// readUpdates applies SubscribeUpdate messages until the remote finishes the
// stream.
func (s *subscribed) readUpdates(r *wire.Reader) error {
	for {
		done, err := r.Done()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		var update message.SubscribeUpdateMessage
		if err := update.Decode(r); err != nil {
			return decodeErr(err)
		}

		s.mu.Lock()
		s.update = update
		s.mu.Unlock()

		s.logger.Debug("updated subscription",
			"priority", update.Priority,
			"order", GroupOrder(update.Order).String(),
		)
	}
}

// priority returns the priority last requested by the subscriber.
func (s *subscribed) priority() TrackPriority {
	s.mu.Lock()
	defer s.mu.Unlock()

	return TrackPriority(s.update.Priority)
}
