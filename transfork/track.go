package transfork

import (
	"context"
	"sync"

	"github.com/okdaichi/transfork/async"
)

// Track is a named series of groups. Only the latest group is retained;
// readers that fall behind skip ahead to it.
type Track struct {
	Path     Path
	Priority TrackPriority

	latest *async.Watch[*Group]

	mu      sync.Mutex
	order   GroupOrder
	readers int
	closed  *Closed
	done    chan struct{}
}

func NewTrack(path Path, priority TrackPriority) *Track {
	return &Track{
		Path:     path,
		Priority: priority,
		latest:   async.NewWatch[*Group](nil),
		done:     make(chan struct{}),
	}
}

func (t *Track) Order() GroupOrder {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.order
}

func (t *Track) SetOrder(order GroupOrder) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.order = order
}

// AppendGroup creates the group after the latest one, or group 0 on an
// empty track.
func (t *Track) AppendGroup() (*Group, error) {
	var group *Group
	err := t.latest.UpdateFunc(func(latest *Group) *Group {
		var seq GroupSequence
		if latest != nil {
			seq = latest.sequence + 1
		}
		group = newGroup(seq)
		return group
	})
	if err != nil {
		return nil, t.writeErr()
	}
	return group, nil
}

// CreateGroup creates the group with sequence seq.
// It becomes the latest group only when seq is newer than the current one.
func (t *Track) CreateGroup(seq GroupSequence) (*Group, error) {
	group := newGroup(seq)
	err := t.latest.UpdateFunc(func(latest *Group) *Group {
		if latest != nil && latest.sequence >= seq {
			return latest
		}
		return group
	})
	if err != nil {
		return nil, t.writeErr()
	}
	return group, nil
}

// Latest returns the sequence of the latest group.
func (t *Track) Latest() (GroupSequence, bool) {
	group, _ := t.latest.Value()
	if group == nil {
		return 0, false
	}
	return group.sequence, true
}

// Reader returns a new reader lease on the track.
func (t *Track) Reader() *TrackReader {
	t.mu.Lock()
	t.readers++
	t.mu.Unlock()

	return &TrackReader{track: t}
}

func (t *Track) Close() {
	t.CloseWithError(NoErrorCode)
}

// CloseWithError closes the track. A non-zero code also aborts the latest
// group. Only the first close is kept.
func (t *Track) CloseWithError(code ErrorCode) {
	t.mu.Lock()
	if t.closed != nil {
		t.mu.Unlock()
		return
	}
	t.closed = &Closed{Code: code}
	close(t.done)
	t.mu.Unlock()

	t.latest.Close()
	latest, _ := t.latest.Value()

	if code != NoErrorCode && latest != nil {
		latest.CloseWithError(code)
	}
}

// Done returns a channel that is closed when the track closes.
func (t *Track) Done() <-chan struct{} {
	return t.done
}

// Err returns the close reason, or nil while the track is open.
func (t *Track) Err() *Closed {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closed
}

func (t *Track) writeErr() error {
	closed := t.Err()
	if closed == nil || closed.Clean() {
		return ErrClosedTrack
	}
	return closed
}

func (t *Track) release() {
	t.mu.Lock()
	t.readers--
	last := t.readers <= 0
	t.mu.Unlock()

	if last {
		t.Close()
	}
}

// TrackReader is one consumer's view of a track.
// Each group is returned at most once per reader.
type TrackReader struct {
	track *Track

	last GroupSequence
	seen bool

	once   sync.Once
	closed bool
}

// NextGroup returns the latest group not yet returned by this reader,
// waiting for one when caught up. It returns io.EOF after a clean close
// and a *Closed otherwise.
func (r *TrackReader) NextGroup(ctx context.Context) (*GroupReader, error) {
	if r.closed {
		return nil, ErrClosedReader
	}

	for {
		group, next := r.track.latest.Value()
		if group != nil && (!r.seen || group.sequence > r.last) {
			r.seen = true
			r.last = group.sequence
			return group.Reader(), nil
		}

		if next == nil {
			return nil, readErr(r.track.Err())
		}

		select {
		case <-next:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Clone returns a new reader lease on the same track that starts from the
// latest group.
func (r *TrackReader) Clone() *TrackReader {
	return r.track.Reader()
}

// Close releases the reader. The track closes once every reader is closed.
func (r *TrackReader) Close() {
	r.once.Do(func() {
		r.closed = true
		r.track.release()
	})
}

func (r *TrackReader) Path() Path {
	return r.track.Path
}

func (r *TrackReader) Priority() TrackPriority {
	return r.track.Priority
}

func (r *TrackReader) Order() GroupOrder {
	return r.track.Order()
}

func (r *TrackReader) Latest() (GroupSequence, bool) {
	return r.track.Latest()
}

func (r *TrackReader) Done() <-chan struct{} {
	return r.track.Done()
}

func (r *TrackReader) Err() *Closed {
	return r.track.Err()
}
