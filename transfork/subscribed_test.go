package transfork

import (
	"context"
	"log/slog"
	"testing"

	"github.com/okdaichi/transfork/quic"
	"github.com/okdaichi/transfork/transfork/internal/message"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSendStream struct {
	mock.Mock
}

func (m *mockSendStream) Write(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *mockSendStream) Close() error {
	return m.Called().Error(0)
}

func (m *mockSendStream) StreamID() quic.StreamID {
	return quic.StreamID(m.Called().Int(0))
}

func (m *mockSendStream) CancelWrite(code quic.StreamErrorCode) {
	m.Called(code)
}

// uniConn hands out a single unidirectional stream.
type uniConn struct {
	quic.Connection
	stream quic.SendStream
}

func (c *uniConn) OpenUniStreamSync(ctx context.Context) (quic.SendStream, error) {
	return c.stream, nil
}

func TestSubscribed_SendGroup(t *testing.T) {
	tests := map[string]struct {
		frameErr error
		reset    *quic.StreamErrorCode
	}{
		"delivered": {},
		"stopped by peer": {
			frameErr: &quic.StreamError{ErrorCode: 42, Remote: true},
			reset:    ptrTo(quic.StreamErrorCode(42)),
		},
		"connection lost": {
			frameErr: &quic.ApplicationError{ErrorCode: 3, Remote: true},
			reset:    ptrTo(quic.StreamErrorCode(InternalErrorCode)),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			stream := &mockSendStream{}
			// Stream type and group header.
			stream.On("Write", mock.Anything).Return(0, nil).Twice()
			stream.On("Write", mock.Anything).Return(0, tt.frameErr).Once()
			stream.On("Close").Return(nil).Maybe()
			stream.On("CancelWrite", mock.Anything).Maybe()

			sub := newSubscribed(&message.SubscribeMessage{SubscribeID: 1}, nil,
				&uniConn{stream: stream}, slog.New(slog.DiscardHandler), nil)

			group := newGroup(0)
			reader := group.Reader()
			require.NoError(t, group.WriteFrame([]byte("x")))
			group.Close()

			sub.sendGroup(testContext(t), reader)

			if tt.reset != nil {
				stream.AssertCalled(t, "CancelWrite", *tt.reset)
				stream.AssertNotCalled(t, "Close")
			} else {
				stream.AssertCalled(t, "Close")
				stream.AssertNotCalled(t, "CancelWrite", mock.Anything)
			}
		})
	}
}

func ptrTo[T any](v T) *T { return &v }
