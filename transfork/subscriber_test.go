package transfork

import (
	"log/slog"
	"testing"
	"time"

	"github.com/okdaichi/transfork/transfork/internal/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriber_GroupDropKeepsSubscription(t *testing.T) {
	ctx := testContext(t)
	local, remote := newPipeConnPair()
	t.Cleanup(func() {
		local.CloseWithError(0, "")
	})

	sub := newSubscriber(ctx, local, slog.New(slog.DiscardHandler), nil, 4)
	track := NewTrack(Path{"room1", "cam"}, 0)

	type result struct {
		reader *TrackReader
		err    error
	}
	subscribed := make(chan result, 1)
	go func() {
		reader, err := sub.Subscribe(ctx, track)
		subscribed <- result{reader, err}
	}()

	stream, err := remote.AcceptStream(ctx)
	require.NoError(t, err)

	s, typ, _, err := acceptStream(stream)
	require.NoError(t, err)
	require.Equal(t, message.StreamTypeSubscribe, typ)

	require.NoError(t, message.InfoMessage{Order: uint64(GroupOrderDescending)}.Encode(s.Writer))

	res := <-subscribed
	require.NoError(t, res.err)
	defer res.reader.Close()

	drops := map[string]message.GroupDropMessage{
		"single":  {GroupSequence: 3, Count: 1, ErrorCode: uint64(NotFoundErrorCode)},
		"range":   {GroupSequence: 10, Count: 5, ErrorCode: uint64(InternalErrorCode)},
		"no code": {GroupSequence: 20},
	}
	for _, drop := range drops {
		require.NoError(t, drop.Encode(s.Writer))
	}

	assert.Never(t, func() bool {
		select {
		case <-track.Done():
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond, "a dropped group must not end the subscription")

	sub.mu.Lock()
	assert.Len(t, sub.subscriptions, 1)
	sub.mu.Unlock()

	// Finishing the stream ends the subscription cleanly.
	require.NoError(t, s.Writer.Close())

	select {
	case <-track.Done():
	case <-time.After(time.Second):
		t.Fatal("track still open after the publisher finished the stream")
	}
	assert.True(t, track.Err().Clean())
}
