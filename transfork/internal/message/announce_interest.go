package message

import (
	"io"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

/*
 * ANNOUNCE_INTEREST Message {
 *   Prefix (path),
 * }
 */
type AnnounceInterestMessage struct {
	Prefix []string
}

func (aim AnnounceInterestMessage) Encode(w io.Writer) error {
	var p wire.Buffer
	p.AppendPath(aim.Prefix)
	return p.Flush(w)
}

func (aim *AnnounceInterestMessage) Decode(r *wire.Reader) error {
	prefix, err := r.ReadPath()
	if err != nil {
		return err
	}
	aim.Prefix = prefix
	return nil
}
