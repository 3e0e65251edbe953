package wire

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/okdaichi/transfork/quic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReceiveStream struct {
	mock.Mock
	io.Reader
}

func (m *mockReceiveStream) StreamID() quic.StreamID {
	return quic.StreamID(m.Called().Int(0))
}

func (m *mockReceiveStream) CancelRead(code quic.StreamErrorCode) {
	m.Called(code)
}

func TestReader_Path(t *testing.T) {
	tests := map[string][]string{
		"empty":        {},
		"single":       {"room1"},
		"nested":       {"room1", "cam"},
		"empty parts":  {"", "a", ""},
		"unicode part": {"部屋", "カメラ"},
	}

	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			b := AppendPath(nil, path)

			r := NewReader(iotest.OneByteReader(bytes.NewReader(b)))
			got, err := r.ReadPath()
			require.NoError(t, err)
			assert.Equal(t, path, got)

			done, err := r.Done()
			require.NoError(t, err)
			assert.True(t, done)
		})
	}
}

func TestReader_U53RejectsLargeValues(t *testing.T) {
	b, err := AppendU62(nil, MaxU53+1)
	require.NoError(t, err)

	r := NewReader(bytes.NewReader(b))
	_, err = r.ReadU53()
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestReader_UnexpectedEOF(t *testing.T) {
	tests := map[string][]byte{
		"empty varint":    {},
		"short varint":    {0x40},
		"short string":    {0x03, 'a'},
		"truncated eight": {0xc0, 0, 0, 0},
	}

	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			r := NewReader(bytes.NewReader(b))
			var err error
			if name == "short string" {
				_, err = r.ReadString()
			} else {
				_, err = r.ReadU62()
			}
			assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
		})
	}
}

func TestReader_StringTooLong(t *testing.T) {
	b, err := AppendU53(nil, MaxStringLength+1)
	require.NoError(t, err)

	r := NewReader(bytes.NewReader(b))
	_, err = r.ReadString()
	assert.ErrorIs(t, err, ErrStringTooLong)
}

func TestReader_DoneKeepsBufferedData(t *testing.T) {
	r := NewReader(iotest.OneByteReader(bytes.NewReader([]byte{0x05, 0x06})))

	done, err := r.Done()
	require.NoError(t, err)
	assert.False(t, done)

	v, err := r.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(5), v)

	rest, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x06}, rest)

	done, err = r.Done()
	require.NoError(t, err)
	assert.True(t, done)
}

func TestReader_ReadNAcrossChunks(t *testing.T) {
	payload := bytes.Repeat([]byte("frame"), 1000)
	r := NewReader(iotest.HalfReader(bytes.NewReader(AppendBytes(nil, payload))))

	got, err := r.ReadBytes()
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReader_Stop(t *testing.T) {
	stream := &mockReceiveStream{Reader: bytes.NewReader(nil)}
	stream.On("CancelRead", quic.StreamErrorCode(404)).Return()

	r := NewReader(stream)
	r.Stop(404)

	stream.AssertExpectations(t)
}
