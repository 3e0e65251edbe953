package webtransportgo

import (
	"errors"

	"github.com/okdaichi/transfork/quic"
	quicgo_webtransportgo "github.com/quic-go/webtransport-go"
)

// wrapError translates webtransport-go errors into the quic error types so
// error codes can be inspected the same way for both transports.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var streamErr *quicgo_webtransportgo.StreamError
	if errors.As(err, &streamErr) {
		return &quic.StreamError{
			ErrorCode: quic.StreamErrorCode(streamErr.ErrorCode),
			Remote:    streamErr.Remote,
		}
	}

	var sessErr *quicgo_webtransportgo.SessionError
	if errors.As(err, &sessErr) {
		return &quic.ApplicationError{
			Remote:       sessErr.Remote,
			ErrorCode:    quic.ApplicationErrorCode(sessErr.ErrorCode),
			ErrorMessage: sessErr.Message,
		}
	}

	return err
}
