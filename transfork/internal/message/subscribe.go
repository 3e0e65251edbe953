package message

import (
	"io"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

/*
 * SUBSCRIBE Message {
 *   Subscribe ID (u62),
 *   Path (path),
 *   Priority (u53),
 *   Order (u53),
 *   Expires (u53),
 *   Start (u62),
 *   End (u62),
 * }
 */
type SubscribeMessage struct {
	SubscribeID uint64
	Path        []string
	SubscribeUpdateMessage
}

func (sm SubscribeMessage) Encode(w io.Writer) error {
	var p wire.Buffer

	p.AppendU62(sm.SubscribeID)
	p.AppendPath(sm.Path)
	sm.SubscribeUpdateMessage.append(&p)

	return p.Flush(w)
}

func (sm *SubscribeMessage) Decode(r *wire.Reader) error {
	var err error

	sm.SubscribeID, err = r.ReadU62()
	if err != nil {
		return err
	}

	sm.Path, err = r.ReadPath()
	if err != nil {
		return err
	}

	return sm.SubscribeUpdateMessage.Decode(r)
}

// DatagramsMessage requests a track delivered over datagrams.
// It shares the SUBSCRIBE layout.
type DatagramsMessage struct {
	SubscribeMessage
}
