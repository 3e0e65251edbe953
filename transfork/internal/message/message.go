// Package message implements the transfork wire messages.
//
// Every message encodes itself in a single Write and decodes from a
// wire.Reader. Messages carry no length prefix; the stream type byte and the
// message order on a stream determine what is read next.
package message

import (
	"errors"
	"fmt"
	"io"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

// Message is implemented by every message in this package.
type Message interface {
	Encode(w io.Writer) error
	Decode(r *wire.Reader) error
}

var (
	_ Message = (*SessionClientMessage)(nil)
	_ Message = (*SessionServerMessage)(nil)
	_ Message = (*SessionInfoMessage)(nil)
	_ Message = (*AnnounceInterestMessage)(nil)
	_ Message = (*AnnounceMessage)(nil)
	_ Message = (*SubscribeMessage)(nil)
	_ Message = (*SubscribeUpdateMessage)(nil)
	_ Message = (*DatagramsMessage)(nil)
	_ Message = (*InfoMessage)(nil)
	_ Message = (*InfoRequestMessage)(nil)
	_ Message = (*FetchMessage)(nil)
	_ Message = (*FetchUpdateMessage)(nil)
	_ Message = (*GroupMessage)(nil)
	_ Message = (*GroupDropMessage)(nil)
	_ Message = (*FrameMessage)(nil)
)

var (
	ErrInvalidOrder = errors.New("message: invalid group order")

	ErrDuplicateExtension = errors.New("message: duplicate extension")

	ErrInvalidAnnounceStatus = errors.New("message: invalid announce status")
)

// Group delivery orders.
const (
	OrderAny        uint64 = 0
	OrderAscending  uint64 = 1
	OrderDescending uint64 = 2
)

func readOrder(r *wire.Reader) (uint64, error) {
	order, err := r.ReadU53()
	if err != nil {
		return 0, err
	}
	if order > OrderDescending {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}
	return order, nil
}

// appendOptional writes the "0 = none, otherwise value+1" encoding.
func appendOptional(p *wire.Buffer, v *uint64) {
	if v == nil {
		p.AppendU62(0)
		return
	}
	if *v >= wire.MaxU62 {
		p.AppendU62(wire.MaxU62 + 1)
		return
	}
	p.AppendU62(*v + 1)
}

func appendOptionalU53(p *wire.Buffer, v *uint64) {
	if v == nil {
		p.AppendU53(0)
		return
	}
	if *v >= wire.MaxU53 {
		p.AppendU53(wire.MaxU53 + 1)
		return
	}
	p.AppendU53(*v + 1)
}

func readOptional(r *wire.Reader) (*uint64, error) {
	num, err := r.ReadU62()
	if err != nil {
		return nil, err
	}
	if num == 0 {
		return nil, nil
	}
	v := num - 1
	return &v, nil
}

func readOptionalU53(r *wire.Reader) (*uint64, error) {
	num, err := r.ReadU53()
	if err != nil {
		return nil, err
	}
	if num == 0 {
		return nil, nil
	}
	v := num - 1
	return &v, nil
}
