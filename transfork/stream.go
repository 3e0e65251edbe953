package transfork

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/okdaichi/transfork/quic"
	"github.com/okdaichi/transfork/transfork/internal/message"
	"github.com/okdaichi/transfork/transfork/internal/wire"
)

// Stream is a bidirectional stream with framed reads and writes.
type Stream struct {
	stream quic.Stream

	Reader *wire.Reader
	Writer *wire.Writer
}

func newStream(stream quic.Stream) *Stream {
	return &Stream{
		stream: stream,
		Reader: wire.NewReader(stream),
		Writer: wire.NewWriter(stream),
	}
}

func (s *Stream) StreamID() quic.StreamID {
	return s.stream.StreamID()
}

// Close finishes the write side.
func (s *Stream) Close() error {
	return s.Writer.Close()
}

// CloseWithError resets the write side and stops the read side with code.
func (s *Stream) CloseWithError(code ErrorCode) {
	s.Writer.Reset(quic.StreamErrorCode(code))
	s.Reader.Stop(quic.StreamErrorCode(code))
}

type encoder interface {
	Encode(w io.Writer) error
}

// openStream opens a bidirectional stream and writes the stream type
// followed by msg.
func openStream(ctx context.Context, conn quic.Connection, typ message.StreamType, msg encoder) (*Stream, error) {
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}

	s := newStream(stream)

	err = s.Writer.WriteU8(uint8(typ))
	if err == nil {
		err = msg.Encode(s.Writer)
	}
	if err != nil {
		s.CloseWithError(ClosedFrom(err).Code)
		return nil, err
	}

	return s, nil
}

// acceptStream reads the stream type of an incoming bidirectional stream and
// decodes the message it starts with.
func acceptStream(stream quic.Stream) (*Stream, message.StreamType, message.Message, error) {
	s := newStream(stream)

	b, err := s.Reader.ReadU8()
	if err != nil {
		return s, 0, nil, err
	}
	typ := message.StreamType(b)

	var msg message.Message
	switch typ {
	case message.StreamTypeSession:
		msg = &message.SessionClientMessage{}
	case message.StreamTypeAnnounceInterest:
		msg = &message.AnnounceInterestMessage{}
	case message.StreamTypeSubscribe:
		msg = &message.SubscribeMessage{}
	case message.StreamTypeDatagrams:
		msg = &message.DatagramsMessage{}
	case message.StreamTypeFetch:
		msg = &message.FetchMessage{}
	case message.StreamTypeInfoRequest:
		msg = &message.InfoRequestMessage{}
	default:
		return s, typ, nil, ProtocolError{Reason: fmt.Sprintf("unknown stream type %d", b)}
	}

	if err := msg.Decode(s.Reader); err != nil {
		return s, typ, nil, decodeErr(err)
	}

	return s, typ, msg, nil
}

// openUniStream opens a group stream and writes its header.
func openUniStream(ctx context.Context, conn quic.Connection, msg message.GroupMessage) (*wire.Writer, error) {
	stream, err := conn.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, err
	}

	w := wire.NewWriter(stream)

	err = w.WriteU8(uint8(message.StreamTypeGroup))
	if err == nil {
		err = msg.Encode(w)
	}
	if err != nil {
		w.Reset(quic.StreamErrorCode(ClosedFrom(err).Code))
		return nil, err
	}

	return w, nil
}

// acceptUniStream reads the stream type and header of a group stream.
func acceptUniStream(stream quic.ReceiveStream) (*wire.Reader, *message.GroupMessage, error) {
	r := wire.NewReader(stream)

	b, err := r.ReadU8()
	if err != nil {
		return r, nil, err
	}

	if message.StreamType(b) != message.StreamTypeGroup {
		return r, nil, ProtocolError{Reason: fmt.Sprintf("unknown unidirectional stream type %d", b)}
	}

	var msg message.GroupMessage
	if err := msg.Decode(r); err != nil {
		return r, nil, decodeErr(err)
	}

	return r, &msg, nil
}

// decodeErr marks malformed messages as protocol violations.
// Transport errors pass through.
func decodeErr(err error) error {
	switch {
	case errors.Is(err, wire.ErrOverflow),
		errors.Is(err, wire.ErrStringTooLong),
		errors.Is(err, wire.ErrPathTooLong),
		errors.Is(err, message.ErrInvalidOrder),
		errors.Is(err, message.ErrDuplicateExtension),
		errors.Is(err, message.ErrInvalidAnnounceStatus):
		return fmt.Errorf("%w: %w", ProtocolError{Reason: "malformed message"}, err)
	default:
		return err
	}
}
