package message

import (
	"io"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

/*
 * FRAME Message {
 *   Length (u53),
 *   Payload (bytes),
 * }
 */
type FrameMessage struct {
	Payload []byte
}

func (fm FrameMessage) Encode(w io.Writer) error {
	size := len(fm.Payload)
	p := make([]byte, 0, wire.SizeU62(uint64(size))+size)
	p = wire.AppendBytes(p, fm.Payload)

	_, err := w.Write(p)
	return err
}

func (fm *FrameMessage) Decode(r *wire.Reader) error {
	payload, err := r.ReadBytes()
	if err != nil {
		return err
	}
	fm.Payload = payload
	return nil
}
