package message

import (
	"io"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

/*
 * SESSION_INFO Message {
 *   Bitrate (u53),
 * }
 */
type SessionInfoMessage struct {
	Bitrate uint64
}

func (sim SessionInfoMessage) Encode(w io.Writer) error {
	var p wire.Buffer
	p.AppendU53(sim.Bitrate)
	return p.Flush(w)
}

func (sim *SessionInfoMessage) Decode(r *wire.Reader) error {
	bitrate, err := r.ReadU53()
	if err != nil {
		return err
	}
	sim.Bitrate = bitrate
	return nil
}
