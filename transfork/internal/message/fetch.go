package message

import (
	"io"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

/*
 * FETCH Message {
 *   Path (path),
 *   Priority (u53),
 * }
 */
type FetchMessage struct {
	Path []string
	FetchUpdateMessage
}

func (fm FetchMessage) Encode(w io.Writer) error {
	var p wire.Buffer

	p.AppendPath(fm.Path)
	p.AppendU53(fm.Priority)

	return p.Flush(w)
}

func (fm *FetchMessage) Decode(r *wire.Reader) error {
	path, err := r.ReadPath()
	if err != nil {
		return err
	}
	fm.Path = path

	return fm.FetchUpdateMessage.Decode(r)
}

/*
 * FETCH_UPDATE Message {
 *   Priority (u53),
 * }
 */
type FetchUpdateMessage struct {
	Priority uint64
}

func (fum FetchUpdateMessage) Encode(w io.Writer) error {
	var p wire.Buffer
	p.AppendU53(fum.Priority)
	return p.Flush(w)
}

func (fum *FetchUpdateMessage) Decode(r *wire.Reader) error {
	priority, err := r.ReadU53()
	if err != nil {
		return err
	}
	fum.Priority = priority
	return nil
}
