package message

import (
	"io"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

/*
 * INFO_REQUEST Message {
 *   Path (path),
 * }
 */
type InfoRequestMessage struct {
	Path []string
}

func (irm InfoRequestMessage) Encode(w io.Writer) error {
	var p wire.Buffer
	p.AppendPath(irm.Path)
	return p.Flush(w)
}

func (irm *InfoRequestMessage) Decode(r *wire.Reader) error {
	path, err := r.ReadPath()
	if err != nil {
		return err
	}
	irm.Path = path
	return nil
}
