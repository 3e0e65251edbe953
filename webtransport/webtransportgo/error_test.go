package webtransportgo

import (
	"errors"
	"io"
	"testing"

	"github.com/okdaichi/transfork/quic"
	quicgo_webtransportgo "github.com/quic-go/webtransport-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, wrapError(nil))
	})

	t.Run("stream error", func(t *testing.T) {
		err := wrapError(&quicgo_webtransportgo.StreamError{ErrorCode: 404, Remote: true})

		var streamErr *quic.StreamError
		require.True(t, errors.As(err, &streamErr))
		assert.Equal(t, quic.StreamErrorCode(404), streamErr.ErrorCode)
		assert.True(t, streamErr.Remote)
	})

	t.Run("session error", func(t *testing.T) {
		err := wrapError(&quicgo_webtransportgo.SessionError{ErrorCode: 3, Message: "bye"})

		var appErr *quic.ApplicationError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, quic.ApplicationErrorCode(3), appErr.ErrorCode)
		assert.Equal(t, "bye", appErr.ErrorMessage)
		assert.False(t, appErr.Remote)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		assert.Equal(t, io.EOF, wrapError(io.EOF))
	})
}
