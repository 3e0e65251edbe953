package transfork

import (
	"context"
	"sync"

	"github.com/okdaichi/transfork/async"
)

// Group is an ordered, append-only list of frames.
// Frames are opaque payloads; a group usually starts with a keyframe.
type Group struct {
	sequence GroupSequence

	frames *async.Watch[[][]byte]

	mu      sync.Mutex
	readers int
	closed  *Closed
	done    chan struct{}
}

func newGroup(seq GroupSequence) *Group {
	return &Group{
		sequence: seq,
		frames:   async.NewWatch[[][]byte](nil),
		done:     make(chan struct{}),
	}
}

func (g *Group) Sequence() GroupSequence {
	return g.sequence
}

// WriteFrame appends a frame.
func (g *Group) WriteFrame(frame []byte) error {
	err := g.frames.UpdateFunc(func(frames [][]byte) [][]byte {
		return append(frames, frame)
	})
	if err != nil {
		return g.writeErr()
	}
	return nil
}

// WriteFrames appends frames and then closes the group.
func (g *Group) WriteFrames(frames ...[]byte) error {
	for _, frame := range frames {
		if err := g.WriteFrame(frame); err != nil {
			return err
		}
	}
	g.Close()
	return nil
}

// Len returns the number of frames written so far.
func (g *Group) Len() int {
	frames, _ := g.frames.Value()
	return len(frames)
}

// Reader returns a new cursor at the first frame.
func (g *Group) Reader() *GroupReader {
	g.mu.Lock()
	g.readers++
	g.mu.Unlock()

	return &GroupReader{group: g}
}

func (g *Group) Close() {
	g.CloseWithError(NoErrorCode)
}

// CloseWithError closes the group. Only the first close is kept.
func (g *Group) CloseWithError(code ErrorCode) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed != nil {
		return
	}

	g.closed = &Closed{Code: code}
	g.frames.Close()
	close(g.done)
}

// Done returns a channel that is closed when the group closes.
func (g *Group) Done() <-chan struct{} {
	return g.done
}

// Err returns the close reason, or nil while the group is open.
func (g *Group) Err() *Closed {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.closed
}

func (g *Group) writeErr() error {
	closed := g.Err()
	if closed == nil || closed.Clean() {
		return ErrClosedGroup
	}
	return closed
}

func (g *Group) release() {
	g.mu.Lock()
	g.readers--
	last := g.readers <= 0
	g.mu.Unlock()

	if last {
		g.Close()
	}
}

// GroupReader reads the frames of a group in order.
type GroupReader struct {
	group *Group
	index int

	once   sync.Once
	closed bool
}

// ReadFrame returns the next frame, waiting for the writer when caught up.
// It returns io.EOF after a clean close and a *Closed otherwise.
func (r *GroupReader) ReadFrame(ctx context.Context) ([]byte, error) {
	if r.closed {
		return nil, ErrClosedReader
	}

	for {
		frames, next := r.group.frames.Value()
		if r.index < len(frames) {
			frame := frames[r.index]
			r.index++
			return frame, nil
		}

		if next == nil {
			return nil, readErr(r.group.Err())
		}

		select {
		case <-next:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Index returns the number of frames read.
func (r *GroupReader) Index() int {
	return r.index
}

func (r *GroupReader) Sequence() GroupSequence {
	return r.group.sequence
}

// Close releases the reader. The group closes once every reader is closed.
func (r *GroupReader) Close() {
	r.once.Do(func() {
		r.closed = true
		r.group.release()
	})
}
