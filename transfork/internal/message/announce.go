package message

import (
	"fmt"
	"io"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

type AnnounceStatus uint64

const (
	AnnounceStatusClosed AnnounceStatus = 0
	AnnounceStatusActive AnnounceStatus = 1
)

func (s AnnounceStatus) String() string {
	switch s {
	case AnnounceStatusActive:
		return "active"
	case AnnounceStatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

/*
 * ANNOUNCE Message {
 *   Status (u53),
 *   Suffix (path),
 * }
 */
type AnnounceMessage struct {
	Status AnnounceStatus
	Suffix []string
}

func (am AnnounceMessage) Encode(w io.Writer) error {
	var p wire.Buffer

	p.AppendU53(uint64(am.Status))
	p.AppendPath(am.Suffix)

	return p.Flush(w)
}

func (am *AnnounceMessage) Decode(r *wire.Reader) error {
	status, err := r.ReadU53()
	if err != nil {
		return err
	}
	if status > uint64(AnnounceStatusActive) {
		return fmt.Errorf("%w: %d", ErrInvalidAnnounceStatus, status)
	}
	am.Status = AnnounceStatus(status)

	am.Suffix, err = r.ReadPath()
	return err
}
