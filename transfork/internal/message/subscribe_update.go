package message

import (
	"io"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

/*
 * SUBSCRIBE_UPDATE Message {
 *   Priority (u53),
 *   Order (u53),
 *   Expires (u53),
 *   Start (u62),
 *   End (u62),
 * }
 *
 * Start and End are 0 when absent and value+1 otherwise.
 */
type SubscribeUpdateMessage struct {
	Priority uint64
	Order    uint64

	// Milliseconds
	Expires uint64

	Start *uint64
	End   *uint64
}

func (sum SubscribeUpdateMessage) append(p *wire.Buffer) {
	p.AppendU53(sum.Priority)
	p.AppendU53(sum.Order)
	p.AppendU53(sum.Expires)
	appendOptional(p, sum.Start)
	appendOptional(p, sum.End)
}

func (sum SubscribeUpdateMessage) Encode(w io.Writer) error {
	var p wire.Buffer
	sum.append(&p)
	return p.Flush(w)
}

func (sum *SubscribeUpdateMessage) Decode(r *wire.Reader) error {
	var err error

	sum.Priority, err = r.ReadU53()
	if err != nil {
		return err
	}

	sum.Order, err = readOrder(r)
	if err != nil {
		return err
	}

	sum.Expires, err = r.ReadU53()
	if err != nil {
		return err
	}

	sum.Start, err = readOptional(r)
	if err != nil {
		return err
	}

	sum.End, err = readOptional(r)
	return err
}
