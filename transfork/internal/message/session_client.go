package message

import (
	"io"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

/*
 * SESSION_CLIENT Message {
 *   Supported Versions {
 *     Count (u53),
 *     Versions (u53...),
 *   },
 *   Extensions (Extensions),
 * }
 */
type SessionClientMessage struct {
	SupportedVersions []uint64
	Extensions        Extensions
}

func (scm SessionClientMessage) Encode(w io.Writer) error {
	var p wire.Buffer

	p.AppendU53(uint64(len(scm.SupportedVersions)))
	for _, version := range scm.SupportedVersions {
		p.AppendU53(version)
	}

	scm.Extensions.append(&p)

	return p.Flush(w)
}

func (scm *SessionClientMessage) Decode(r *wire.Reader) error {
	count, err := r.ReadU53()
	if err != nil {
		return err
	}

	scm.SupportedVersions = make([]uint64, 0, min(count, 16))
	for range count {
		version, err := r.ReadU53()
		if err != nil {
			return err
		}
		scm.SupportedVersions = append(scm.SupportedVersions, version)
	}

	scm.Extensions, err = readExtensions(r)
	return err
}
