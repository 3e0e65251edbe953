package transfork

import (
	"errors"
	"fmt"

	"github.com/okdaichi/transfork/quic"
)

var (
	// ErrInvalidScheme is returned when a URL scheme is not supported.
	// Only "https" (for WebTransport) and "moqt" (for QUIC) schemes are valid.
	ErrInvalidScheme = errors.New("transfork: invalid scheme")

	// ErrClosedConnection is returned when using a connection that has closed.
	ErrClosedConnection = errors.New("transfork: closed connection")

	// ErrServerClosed is returned when the server has been closed.
	ErrServerClosed = errors.New("transfork: server closed")

	// ErrClosedReader is returned when reading through a closed reader.
	ErrClosedReader = errors.New("transfork: closed reader")

	// ErrClosedTrack is returned when writing to a track that closed cleanly.
	ErrClosedTrack = errors.New("transfork: closed track")

	// ErrClosedGroup is returned when writing to a group that closed cleanly.
	ErrClosedGroup = errors.New("transfork: closed group")

	// ErrUnsupportedVersion is returned when the peers share no version.
	ErrUnsupportedVersion = errors.New("transfork: unsupported version")

	// ErrDuplicateAnnounce is returned when publishing a path twice.
	ErrDuplicateAnnounce = errors.New("transfork: duplicate announce")
)

// Protocol violations. They reset the offending stream and leave the
// connection running.
var (
	ErrDuplicateSubscribe = ProtocolError{Reason: "duplicate subscribe id", Code: DuplicateErrorCode}

	ErrDuplicateSession = ProtocolError{Reason: "duplicate session stream"}

	ErrDuplicateAnnounced = ProtocolError{Reason: "duplicate announce"}

	ErrUnknownAnnounced = ProtocolError{Reason: "unknown announce"}
)

// ProtocolError reports a peer that broke the wire protocol.
// Code defaults to ProtocolViolationErrorCode.
type ProtocolError struct {
	Reason string
	Code   ErrorCode
}

func (err ProtocolError) Error() string {
	return "transfork: protocol violation: " + err.Reason
}

func (err ProtocolError) ErrorCode() ErrorCode {
	if err.Code != NoErrorCode {
		return err.Code
	}
	return ProtocolViolationErrorCode
}

/*
 * Stream Errors
 */
const (
	NoErrorCode ErrorCode = 0

	ProtocolViolationErrorCode ErrorCode = 400
	NotFoundErrorCode          ErrorCode = 404
	DuplicateErrorCode         ErrorCode = 409
	InternalErrorCode          ErrorCode = 500
	NotImplementedErrorCode    ErrorCode = 501
)

var ErrorCodeTexts = map[ErrorCode]string{
	NoErrorCode:                "transfork: no error",
	ProtocolViolationErrorCode: "transfork: protocol violation",
	NotFoundErrorCode:          "transfork: not found",
	DuplicateErrorCode:         "transfork: duplicate",
	InternalErrorCode:          "transfork: internal error",
	NotImplementedErrorCode:    "transfork: not implemented",
}

// ErrorCode is carried by stream resets and stop-sending frames.
type ErrorCode quic.StreamErrorCode

func (code ErrorCode) String() string {
	if text, ok := ErrorCodeTexts[code]; ok {
		return text
	}
	return fmt.Sprintf("transfork: error code %d", uint64(code))
}

/*
 * Session Errors
 */
const (
	NoError SessionErrorCode = 0x0

	InternalSessionErrorCode          SessionErrorCode = 0x1
	ProtocolViolationSessionErrorCode SessionErrorCode = 0x3
	UnsupportedVersionErrorCode       SessionErrorCode = 0x12
	SetupFailedErrorCode              SessionErrorCode = 0x13
)

var SessionErrorCodeTexts = map[SessionErrorCode]string{
	NoError:                           "transfork: no error",
	InternalSessionErrorCode:          "transfork: internal error",
	ProtocolViolationSessionErrorCode: "transfork: protocol violation",
	UnsupportedVersionErrorCode:       "transfork: unsupported version",
	SetupFailedErrorCode:              "transfork: setup failed",
}

// SessionErrorCode is carried when closing a whole connection.
type SessionErrorCode quic.ApplicationErrorCode

func (code SessionErrorCode) String() string {
	return SessionErrorCodeTexts[code]
}

// SessionError wraps a QUIC application error with session-specific error codes.
type SessionError struct{ *quic.ApplicationError }

func (err SessionError) Error() string {
	var role string
	if err.Remote {
		role = "remote"
	} else {
		role = "local"
	}
	return fmt.Sprintf("%s (%s)", err.SessionErrorCode().String(), role)
}

func (err SessionError) SessionErrorCode() SessionErrorCode {
	return SessionErrorCode(err.ErrorCode)
}

func (err SessionError) Unwrap() error {
	return err.ApplicationError
}
