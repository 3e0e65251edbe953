package webtransportgo

import (
	"github.com/okdaichi/transfork/quic"
	quicgo_webtransportgo "github.com/quic-go/webtransport-go"
)

var (
	_ quic.Stream        = (*bidiStream)(nil)
	_ quic.SendStream    = sendStream{}
	_ quic.ReceiveStream = receiveStream{}
)

// bidiStream joins both halves of a webtransport-go stream.
type bidiStream struct {
	sendStream
	receiveStream
}

func (s *bidiStream) StreamID() quic.StreamID {
	return s.sendStream.StreamID()
}

type sendStream struct {
	stream quicgo_webtransportgo.SendStream
}

func (s sendStream) StreamID() quic.StreamID {
	return s.stream.StreamID()
}

func (s sendStream) Write(b []byte) (int, error) {
	n, err := s.stream.Write(b)
	return n, wrapError(err)
}

func (s sendStream) Close() error {
	return wrapError(s.stream.Close())
}

func (s sendStream) CancelWrite(code quic.StreamErrorCode) {
	s.stream.CancelWrite(quicgo_webtransportgo.StreamErrorCode(code))
}

type receiveStream struct {
	stream quicgo_webtransportgo.ReceiveStream
}

func (s receiveStream) StreamID() quic.StreamID {
	return s.stream.StreamID()
}

func (s receiveStream) Read(b []byte) (int, error) {
	n, err := s.stream.Read(b)
	return n, wrapError(err)
}

func (s receiveStream) CancelRead(code quic.StreamErrorCode) {
	s.stream.CancelRead(quicgo_webtransportgo.StreamErrorCode(code))
}
