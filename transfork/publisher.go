package transfork

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/okdaichi/transfork/async"
	"github.com/okdaichi/transfork/quic"
	"github.com/okdaichi/transfork/transfork/internal/message"
	"github.com/okdaichi/transfork/transfork/internal/wire"
)

// publisher serves the local tracks to the remote peer.
type publisher struct {
	ctx     context.Context
	conn    quic.Connection
	logger  *slog.Logger
	metrics *Metrics

	mu         sync.Mutex
	announced  map[string]*TrackReader
	subscribed map[uint64]*subscribed

	// Woken on every change to announced.
	changed async.Notify
}

func newPublisher(ctx context.Context, conn quic.Connection, logger *slog.Logger, metrics *Metrics) *publisher {
	return &publisher{
		ctx:        ctx,
		conn:       conn,
		logger:     logger,
		metrics:    metrics,
		announced:  make(map[string]*TrackReader),
		subscribed: make(map[uint64]*subscribed),
	}
}

// Publish announces the track to the peer until the track closes.
func (p *publisher) Publish(reader *TrackReader) error {
	key := reader.Path().key()

	p.mu.Lock()
	if _, ok := p.announced[key]; ok {
		p.mu.Unlock()
		return ErrDuplicateAnnounce
	}
	p.announced[key] = reader
	p.changed.Wake()
	p.mu.Unlock()

	p.logger.Debug("published track", "path", reader.Path().String())

	go func() {
		select {
		case <-reader.Done():
		case <-p.ctx.Done():
		}
		p.unpublish(key, reader)
	}()

	return nil
}

func (p *publisher) unpublish(key string, reader *TrackReader) {
	p.mu.Lock()
	if p.announced[key] == reader {
		delete(p.announced, key)
		p.changed.Wake()
	}
	p.mu.Unlock()

	reader.Close()

	p.logger.Debug("unpublished track", "path", reader.Path().String())
}

// activeSuffixes returns the announced paths below prefix keyed by suffix,
// and a channel that is closed on the next change.
func (p *publisher) activeSuffixes(prefix Path) (map[string]Path, <-chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	changed := p.changed.Wait()

	active := make(map[string]Path)
	for _, reader := range p.announced {
		suffix, ok := reader.Path().TrimPrefix(prefix)
		if !ok {
			continue
		}
		active[suffix.key()] = suffix
	}

	return active, changed
}

// runAnnounce writes the announced paths matching the interest, then keeps
// the stream updated until the remote closes it.
func (p *publisher) runAnnounce(ctx context.Context, msg *message.AnnounceInterestMessage, s *Stream) error {
	prefix := Path(msg.Prefix)
	logger := p.logger.With(
		"stream_id", s.StreamID(),
		"prefix", prefix.String(),
	)

	remoteDone := make(chan error, 1)
	go func() {
		remoteDone <- waitDone(s.Reader)
	}()

	sent := make(map[string]Path)

	for {
		active, changed := p.activeSuffixes(prefix)

		var updates []message.AnnounceMessage
		for key, suffix := range active {
			if _, ok := sent[key]; !ok {
				updates = append(updates, message.AnnounceMessage{Status: message.AnnounceStatusActive, Suffix: suffix})
				sent[key] = suffix
			}
		}
		for key, suffix := range sent {
			if _, ok := active[key]; !ok {
				updates = append(updates, message.AnnounceMessage{Status: message.AnnounceStatusClosed, Suffix: suffix})
				delete(sent, key)
			}
		}

		slices.SortFunc(updates, func(a, b message.AnnounceMessage) int {
			return strings.Compare(Path(a.Suffix).String(), Path(b.Suffix).String())
		})

		for _, update := range updates {
			if err := update.Encode(s.Writer); err != nil {
				return err
			}
			logger.Debug("sent announce",
				"suffix", Path(update.Suffix).String(),
				"status", update.Status.String(),
			)
		}

		select {
		case <-changed:
		case err := <-remoteDone:
			if err != nil {
				return err
			}
			return s.Close()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runSubscribe serves one subscription until the track ends or the remote
// cancels it.
func (p *publisher) runSubscribe(ctx context.Context, msg *message.SubscribeMessage, s *Stream) error {
	path := Path(msg.Path)
	logger := p.logger.With(
		"stream_id", s.StreamID(),
		"subscribe_id", msg.SubscribeID,
		"path", path.String(),
	)

	p.mu.Lock()
	if _, ok := p.subscribed[msg.SubscribeID]; ok {
		p.mu.Unlock()
		return ErrDuplicateSubscribe
	}
	reader, ok := p.announced[path.key()]
	if !ok {
		p.mu.Unlock()
		logger.Debug("subscribed track not found")
		return &Closed{Code: NotFoundErrorCode}
	}
	sub := newSubscribed(msg, reader.Clone(), p.conn, logger, p.metrics)
	p.subscribed[msg.SubscribeID] = sub
	p.mu.Unlock()

	p.metrics.subscriptionStarted()

	defer func() {
		p.mu.Lock()
		delete(p.subscribed, msg.SubscribeID)
		p.mu.Unlock()

		sub.reader.Close()
		p.metrics.subscriptionEnded()
	}()

	if err := infoMessage(sub.reader).Encode(s.Writer); err != nil {
		return err
	}

	logger.Debug("accepted subscription")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sent := make(chan error, 1)
	go func() {
		sent <- sub.run(ctx)
	}()

	updated := make(chan error, 1)
	go func() {
		updated <- sub.readUpdates(s.Reader)
	}()

	select {
	case err := <-sent:
		if err != nil {
			return err
		}
		logger.Debug("track ended")
		return s.Close()
	case err := <-updated:
		cancel()
		<-sent
		if err != nil {
			return err
		}
		logger.Debug("subscription canceled by remote")
		return s.Close()
	}
}

// runInfo replies with the current state of a track.
func (p *publisher) runInfo(ctx context.Context, msg *message.InfoRequestMessage, s *Stream) error {
	p.mu.Lock()
	reader, ok := p.announced[Path(msg.Path).key()]
	p.mu.Unlock()

	if !ok {
		return &Closed{Code: NotFoundErrorCode}
	}

	if err := infoMessage(reader).Encode(s.Writer); err != nil {
		return err
	}
	return s.Close()
}

// TODO: serve datagram subscriptions once the quic package exposes datagrams.
func (p *publisher) runDatagrams(ctx context.Context, msg *message.DatagramsMessage, s *Stream) error {
	return &Closed{Code: NotImplementedErrorCode}
}

func (p *publisher) runFetch(ctx context.Context, msg *message.FetchMessage, s *Stream) error {
	return &Closed{Code: NotImplementedErrorCode}
}

func infoMessage(reader *TrackReader) message.InfoMessage {
	info := message.InfoMessage{
		Priority: uint64(reader.Priority()),
		Order:    uint64(reader.Order()),
	}
	if latest, ok := reader.Latest(); ok {
		seq := uint64(latest)
		info.Latest = &seq
	}
	return info
}

// waitDone blocks until the remote finishes the stream. Any data is a
// protocol violation.
func waitDone(r *wire.Reader) error {
	done, err := r.Done()
	if err != nil {
		return err
	}
	if !done {
		return ProtocolError{Reason: "unexpected data"}
	}
	return nil
}
