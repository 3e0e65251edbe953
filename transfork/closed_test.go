package transfork

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/okdaichi/transfork/quic"
	"github.com/stretchr/testify/assert"
)

func TestClosedFrom(t *testing.T) {
	tests := map[string]struct {
		err  error
		code ErrorCode
	}{
		"nil": {
			err:  nil,
			code: NoErrorCode,
		},
		"eof": {
			err:  io.EOF,
			code: NoErrorCode,
		},
		"wrapped eof": {
			err:  fmt.Errorf("read: %w", io.EOF),
			code: NoErrorCode,
		},
		"canceled": {
			err:  context.Canceled,
			code: NoErrorCode,
		},
		"closed group": {
			err:  ErrClosedGroup,
			code: NoErrorCode,
		},
		"closed": {
			err:  &Closed{Code: NotFoundErrorCode},
			code: NotFoundErrorCode,
		},
		"stream error": {
			err:  &quic.StreamError{ErrorCode: 404, Remote: true},
			code: NotFoundErrorCode,
		},
		"protocol error": {
			err:  ErrUnknownAnnounced,
			code: ProtocolViolationErrorCode,
		},
		"duplicate subscribe": {
			err:  ErrDuplicateSubscribe,
			code: DuplicateErrorCode,
		},
		"clean application close": {
			err:  &quic.ApplicationError{ErrorCode: 0, Remote: true},
			code: NoErrorCode,
		},
		"application error": {
			err:  &quic.ApplicationError{ErrorCode: 1, Remote: true},
			code: InternalErrorCode,
		},
		"other": {
			err:  errors.New("boom"),
			code: InternalErrorCode,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.code, ClosedFrom(tt.err).Code)
		})
	}
}

func TestReadErr(t *testing.T) {
	assert.Equal(t, io.EOF, readErr(nil))
	assert.Equal(t, io.EOF, readErr(&Closed{}))

	closed := &Closed{Code: InternalErrorCode}
	assert.Equal(t, closed, readErr(closed))
}

func TestClosed_Error(t *testing.T) {
	assert.Equal(t, "transfork: closed", (&Closed{}).Error())
	assert.Equal(t, "transfork: closed: transfork: not found", (&Closed{Code: NotFoundErrorCode}).Error())
	assert.ErrorIs(t, &Closed{Code: 500}, &Closed{Code: InternalErrorCode})
}

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "transfork: not implemented", NotImplementedErrorCode.String())
	assert.Equal(t, "transfork: error code 7", ErrorCode(7).String())
}
