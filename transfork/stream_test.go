package transfork

import (
	"testing"

	"github.com/okdaichi/transfork/transfork/internal/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAcceptStream(t *testing.T) {
	ctx := testContext(t)
	local, remote := newPipeConnPair()
	defer local.CloseWithError(0, "")

	want := message.SubscribeMessage{
		SubscribeID: 3,
		Path:        []string{"room1", "cam"},
		SubscribeUpdateMessage: message.SubscribeUpdateMessage{
			Priority: 1,
			Order:    message.OrderDescending,
		},
	}

	go openStream(ctx, local, message.StreamTypeSubscribe, want)

	stream, err := remote.AcceptStream(ctx)
	require.NoError(t, err)

	_, typ, msg, err := acceptStream(stream)
	require.NoError(t, err)
	assert.Equal(t, message.StreamTypeSubscribe, typ)
	assert.Equal(t, &want, msg)
}

func TestAcceptStream_UnknownType(t *testing.T) {
	ctx := testContext(t)
	local, remote := newPipeConnPair()
	defer local.CloseWithError(0, "")

	go func() {
		stream, err := local.OpenStreamSync(ctx)
		if err == nil {
			stream.Write([]byte{0x3f})
		}
	}()

	stream, err := remote.AcceptStream(ctx)
	require.NoError(t, err)

	_, _, _, err = acceptStream(stream)
	var protoErr ProtocolError
	assert.ErrorAs(t, err, &protoErr)
	assert.Equal(t, ProtocolViolationErrorCode, ClosedFrom(err).Code)
}

func TestAcceptStream_MalformedMessage(t *testing.T) {
	ctx := testContext(t)
	local, remote := newPipeConnPair()
	defer local.CloseWithError(0, "")

	go func() {
		stream, err := local.OpenStreamSync(ctx)
		if err != nil {
			return
		}
		// A subscribe with an order of 3.
		stream.Write([]byte{byte(message.StreamTypeSubscribe), 0x00, 0x00, 0x00, 0x03})
		stream.Close()
	}()

	stream, err := remote.AcceptStream(ctx)
	require.NoError(t, err)

	_, _, _, err = acceptStream(stream)
	assert.ErrorIs(t, err, message.ErrInvalidOrder)
	assert.Equal(t, ProtocolViolationErrorCode, ClosedFrom(err).Code)
}

func TestOpenAcceptUniStream(t *testing.T) {
	ctx := testContext(t)
	local, remote := newPipeConnPair()
	defer local.CloseWithError(0, "")

	go func() {
		w, err := openUniStream(ctx, local, message.GroupMessage{SubscribeID: 1, GroupSequence: 9})
		if err == nil {
			w.Close()
		}
	}()

	stream, err := remote.AcceptUniStream(ctx)
	require.NoError(t, err)

	r, msg, err := acceptUniStream(stream)
	require.NoError(t, err)
	assert.Equal(t, &message.GroupMessage{SubscribeID: 1, GroupSequence: 9}, msg)

	done, err := r.Done()
	require.NoError(t, err)
	assert.True(t, done)
}
