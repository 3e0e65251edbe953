package message

import (
	"io"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

/*
 * INFO Message {
 *   Priority (u53),
 *   Order (u53),
 *   Expires (u53),
 *   Latest (u53),
 * }
 *
 * Latest is 0 when no group exists yet and sequence+1 otherwise.
 */
type InfoMessage struct {
	Priority uint64
	Order    uint64
	Expires  uint64
	Latest   *uint64
}

func (im InfoMessage) Encode(w io.Writer) error {
	var p wire.Buffer

	p.AppendU53(im.Priority)
	p.AppendU53(im.Order)
	p.AppendU53(im.Expires)
	appendOptionalU53(&p, im.Latest)

	return p.Flush(w)
}

func (im *InfoMessage) Decode(r *wire.Reader) error {
	var err error

	im.Priority, err = r.ReadU53()
	if err != nil {
		return err
	}

	im.Order, err = readOrder(r)
	if err != nil {
		return err
	}

	im.Expires, err = r.ReadU53()
	if err != nil {
		return err
	}

	im.Latest, err = readOptionalU53(r)
	return err
}
