package message

import (
	"io"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

/*
 * SESSION_SERVER Message {
 *   Selected Version (u53),
 *   Extensions (Extensions),
 * }
 */
type SessionServerMessage struct {
	SelectedVersion uint64
	Extensions      Extensions
}

func (ssm SessionServerMessage) Encode(w io.Writer) error {
	var p wire.Buffer

	p.AppendU53(ssm.SelectedVersion)
	ssm.Extensions.append(&p)

	return p.Flush(w)
}

func (ssm *SessionServerMessage) Decode(r *wire.Reader) error {
	version, err := r.ReadU53()
	if err != nil {
		return err
	}
	ssm.SelectedVersion = version

	ssm.Extensions, err = readExtensions(r)
	return err
}
