package wire

import (
	"errors"
	"fmt"
	"io"

	"github.com/okdaichi/transfork/quic"
)

const (
	minRead = 1 << 10
	maxRead = 1 << 16
)

// Reader reads framed values from a stream. It buffers only as much as the
// next value needs.
type Reader struct {
	r      io.Reader
	stream quic.ReceiveStream

	buf []byte
	eof bool
}

func NewReader(r io.Reader) *Reader {
	reader := &Reader{r: r}
	if stream, ok := r.(quic.ReceiveStream); ok {
		reader.stream = stream
	}
	return reader
}

// fill reads one chunk from the stream, sized for want bytes within
// [minRead, maxRead].
func (r *Reader) fill(want int) error {
	if r.eof {
		return io.EOF
	}

	want = min(max(want, minRead), maxRead)

	p := make([]byte, want)
	n, err := r.r.Read(p)
	r.buf = append(r.buf, p[:n]...)

	if errors.Is(err, io.EOF) {
		r.eof = true
		if n > 0 {
			return nil
		}
		return io.EOF
	}

	return err
}

func (r *Reader) fillTo(size int) error {
	for len(r.buf) < size {
		err := r.fill(size - len(r.buf))
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) slice(size int) []byte {
	out := make([]byte, size)
	copy(out, r.buf[:size])
	r.buf = r.buf[size:]
	return out
}

// ReadN reads exactly n bytes.
func (r *Reader) ReadN(n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}

	if err := r.fillTo(n); err != nil {
		return nil, err
	}
	return r.slice(n), nil
}

// ReadAll reads until the end of the stream.
func (r *Reader) ReadAll() ([]byte, error) {
	for {
		err := r.fill(minRead)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return r.slice(len(r.buf)), nil
}

func (r *Reader) ReadU8() (uint8, error) {
	if err := r.fillTo(1); err != nil {
		return 0, err
	}
	return r.slice(1)[0], nil
}

// ReadU62 reads a varint.
func (r *Reader) ReadU62() (uint64, error) {
	if err := r.fillTo(1); err != nil {
		return 0, err
	}

	size := 1 << (r.buf[0] >> 6)
	if err := r.fillTo(size); err != nil {
		return 0, err
	}

	v, _, err := ParseU62(r.buf[:size])
	if err != nil {
		return 0, err
	}
	r.buf = r.buf[size:]

	return v, nil
}

// ReadU53 reads a varint and rejects values above MaxU53.
func (r *Reader) ReadU53() (uint64, error) {
	v, err := r.ReadU62()
	if err != nil {
		return 0, err
	}
	if v > MaxU53 {
		return 0, fmt.Errorf("%w: %d > 2^53-1", ErrOverflow, v)
	}
	return v, nil
}

func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadU53()
	if err != nil {
		return nil, err
	}
	if n > uint64(maxInt) {
		return nil, ErrOverflow
	}
	return r.ReadN(int(n))
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU53()
	if err != nil {
		return "", err
	}
	if n > MaxStringLength {
		return "", fmt.Errorf("%w: %d bytes", ErrStringTooLong, n)
	}

	b, err := r.ReadN(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) ReadPath() ([]string, error) {
	n, err := r.ReadU53()
	if err != nil {
		return nil, err
	}
	if n > MaxPathLength {
		return nil, fmt.Errorf("%w: %d segments", ErrPathTooLong, n)
	}

	path := make([]string, 0, n)
	for range n {
		part, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		path = append(path, part)
	}

	return path, nil
}

// Done reports whether the stream has ended with nothing left to read.
// Buffered data is kept for the next read.
func (r *Reader) Done() (bool, error) {
	for len(r.buf) == 0 {
		err := r.fill(minRead)
		if errors.Is(err, io.EOF) {
			return len(r.buf) == 0, nil
		}
		if err != nil {
			return false, err
		}
	}
	return false, nil
}

// Stop asks the peer to stop sending with code.
// It is a no-op when the reader does not wrap a QUIC stream.
func (r *Reader) Stop(code quic.StreamErrorCode) {
	if r.stream != nil {
		r.stream.CancelRead(code)
	}
}

const maxInt = int(^uint(0) >> 1)
