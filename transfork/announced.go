package transfork

import (
	"context"

	"github.com/okdaichi/transfork/async"
)

// Announced is a track path the peer has announced.
// It is closed when the peer withdraws the announcement.
type Announced struct {
	Path Path

	closed *async.Deferred[struct{}]
}

func newAnnounced(path Path) *Announced {
	return &Announced{
		Path:   path,
		closed: async.NewDeferred[struct{}](),
	}
}

func (a *Announced) Close() {
	a.closed.Resolve(struct{}{})
}

// Closed blocks until the announcement is withdrawn or ctx is done.
func (a *Announced) Closed(ctx context.Context) error {
	_, err := a.closed.Wait(ctx)
	return err
}

func (a *Announced) Done() <-chan struct{} {
	return a.closed.Done()
}
