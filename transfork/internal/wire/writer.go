package wire

import (
	"io"

	"github.com/okdaichi/transfork/quic"
)

// Writer writes framed values to a stream.
type Writer struct {
	w      io.Writer
	stream quic.SendStream

	scratch []byte
}

func NewWriter(w io.Writer) *Writer {
	writer := &Writer{
		w:       w,
		scratch: make([]byte, 0, 8),
	}
	if stream, ok := w.(quic.SendStream); ok {
		writer.stream = stream
	}
	return writer
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

func (w *Writer) WriteU8(v uint8) error {
	w.scratch = AppendU8(w.scratch[:0], v)
	_, err := w.w.Write(w.scratch)
	return err
}

func (w *Writer) WriteU53(v uint64) error {
	var err error
	w.scratch, err = AppendU53(w.scratch[:0], v)
	if err != nil {
		return err
	}
	_, err = w.w.Write(w.scratch)
	return err
}

func (w *Writer) WriteU62(v uint64) error {
	var err error
	w.scratch, err = AppendU62(w.scratch[:0], v)
	if err != nil {
		return err
	}
	_, err = w.w.Write(w.scratch)
	return err
}

func (w *Writer) WriteString(s string) error {
	_, err := w.w.Write(AppendString(nil, s))
	return err
}

func (w *Writer) WritePath(path []string) error {
	_, err := w.w.Write(AppendPath(nil, path))
	return err
}

// Close finishes the stream.
func (w *Writer) Close() error {
	if closer, ok := w.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Reset abandons the stream with code.
// It is a no-op when the writer does not wrap a QUIC stream.
func (w *Writer) Reset(code quic.StreamErrorCode) {
	if w.stream != nil {
		w.stream.CancelWrite(code)
	}
}
