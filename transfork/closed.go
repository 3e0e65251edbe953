package transfork

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/okdaichi/transfork/quic"
)

// Closed is the reason a track, group or stream ended.
// Code 0 means a clean close.
type Closed struct {
	Code ErrorCode
}

func (c *Closed) Error() string {
	if c.Code == NoErrorCode {
		return "transfork: closed"
	}
	return fmt.Sprintf("transfork: closed: %s", c.Code)
}

func (c *Closed) Is(target error) bool {
	other, ok := target.(*Closed)
	return ok && other.Code == c.Code
}

// Clean reports whether c carries no error.
func (c *Closed) Clean() bool {
	return c.Code == NoErrorCode
}

// ClosedFrom derives the close reason for err.
// Stream resets keep their code, errors carrying an ErrorCode keep that code,
// and anything else is an internal error.
func ClosedFrom(err error) *Closed {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return &Closed{Code: NoErrorCode}
	}
	if errors.Is(err, ErrClosedTrack) || errors.Is(err, ErrClosedGroup) {
		return &Closed{Code: NoErrorCode}
	}

	var closed *Closed
	if errors.As(err, &closed) {
		return closed
	}

	var strErr *quic.StreamError
	if errors.As(err, &strErr) {
		return &Closed{Code: ErrorCode(strErr.ErrorCode)}
	}

	var coded interface{ ErrorCode() ErrorCode }
	if errors.As(err, &coded) {
		return &Closed{Code: coded.ErrorCode()}
	}

	var appErr *quic.ApplicationError
	if errors.As(err, &appErr) && appErr.ErrorCode == quic.ApplicationErrorCode(NoError) {
		return &Closed{Code: NoErrorCode}
	}

	return &Closed{Code: InternalErrorCode}
}

// readErr turns a clean close into io.EOF for readers.
func readErr(closed *Closed) error {
	if closed == nil || closed.Clean() {
		return io.EOF
	}
	return closed
}
