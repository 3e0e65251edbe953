package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/quic-go/quic-go/quicvarint"
)

const (
	// MaxU53 is the largest value carried in a 53-bit field.
	MaxU53 = 1<<53 - 1

	// MaxU62 is the largest value a QUIC varint can carry.
	MaxU62 = quicvarint.Max

	// MaxStringLength bounds decoded strings.
	MaxStringLength = 4096

	// MaxPathLength bounds the number of segments in a decoded path.
	MaxPathLength = 64
)

var (
	ErrOverflow = errors.New("wire: value overflows field")

	ErrStringTooLong = errors.New("wire: string too long")

	ErrPathTooLong = errors.New("wire: path too long")
)

// SizeU62 returns the encoded size of v, or 0 when v does not fit.
func SizeU62(v uint64) int {
	if v > MaxU62 {
		return 0
	}
	return quicvarint.Len(v)
}

func AppendU8(b []byte, v uint8) []byte {
	return append(b, v)
}

// AppendU53 appends v with the minimal varint width.
func AppendU53(b []byte, v uint64) ([]byte, error) {
	if v > MaxU53 {
		return b, fmt.Errorf("%w: %d > 2^53-1", ErrOverflow, v)
	}
	return quicvarint.Append(b, v), nil
}

// AppendU62 appends v with the minimal varint width.
func AppendU62(b []byte, v uint64) ([]byte, error) {
	if v > MaxU62 {
		return b, fmt.Errorf("%w: %d > 2^62-1", ErrOverflow, v)
	}
	return quicvarint.Append(b, v), nil
}

// AppendBytes appends a u53 length prefix followed by p.
func AppendBytes(b []byte, p []byte) []byte {
	b = quicvarint.Append(b, uint64(len(p)))
	return append(b, p...)
}

func AppendString(b []byte, s string) []byte {
	b = quicvarint.Append(b, uint64(len(s)))
	return append(b, s...)
}

func AppendPath(b []byte, path []string) []byte {
	b = quicvarint.Append(b, uint64(len(path)))
	for _, part := range path {
		b = AppendString(b, part)
	}
	return b
}

// ParseU62 decodes a single varint from b, returning the value and the
// number of bytes consumed.
func ParseU62(b []byte) (uint64, int, error) {
	r := bytes.NewReader(b)
	v, err := quicvarint.Read(r)
	if err != nil {
		return 0, 0, err
	}
	return v, len(b) - r.Len(), nil
}

/*
 * Buffer accumulates an encoded message.
 * The first error sticks and is reported by Flush.
 */
type Buffer struct {
	b   []byte
	err error
}

func (buf *Buffer) AppendU8(v uint8) {
	buf.b = AppendU8(buf.b, v)
}

func (buf *Buffer) AppendU53(v uint64) {
	if buf.err != nil {
		return
	}
	buf.b, buf.err = AppendU53(buf.b, v)
}

func (buf *Buffer) AppendU62(v uint64) {
	if buf.err != nil {
		return
	}
	buf.b, buf.err = AppendU62(buf.b, v)
}

func (buf *Buffer) AppendBytes(p []byte) {
	buf.b = AppendBytes(buf.b, p)
}

func (buf *Buffer) AppendString(s string) {
	buf.b = AppendString(buf.b, s)
}

func (buf *Buffer) AppendPath(path []string) {
	buf.b = AppendPath(buf.b, path)
}

// Bytes returns the encoded bytes or the first append error.
func (buf *Buffer) Bytes() ([]byte, error) {
	return buf.b, buf.err
}

// Flush writes the encoded bytes to w in a single call.
func (buf *Buffer) Flush(w io.Writer) error {
	if buf.err != nil {
		return buf.err
	}
	_, err := w.Write(buf.b)
	return err
}
