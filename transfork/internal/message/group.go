package message

import (
	"io"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

/*
 * GROUP Message {
 *   Subscribe ID (u62),
 *   Group Sequence (u53),
 * }
 */
type GroupMessage struct {
	SubscribeID   uint64
	GroupSequence uint64
}

func (gm GroupMessage) Encode(w io.Writer) error {
	var p wire.Buffer

	p.AppendU62(gm.SubscribeID)
	p.AppendU53(gm.GroupSequence)

	return p.Flush(w)
}

func (gm *GroupMessage) Decode(r *wire.Reader) error {
	var err error

	gm.SubscribeID, err = r.ReadU62()
	if err != nil {
		return err
	}

	gm.GroupSequence, err = r.ReadU53()
	return err
}

/*
 * GROUP_DROP Message {
 *   Group Sequence (u53),
 *   Count (u53),
 *   Error Code (u53),
 * }
 */
type GroupDropMessage struct {
	GroupSequence uint64
	Count         uint64
	ErrorCode     uint64
}

func (gdm GroupDropMessage) Encode(w io.Writer) error {
	var p wire.Buffer

	p.AppendU53(gdm.GroupSequence)
	p.AppendU53(gdm.Count)
	p.AppendU53(gdm.ErrorCode)

	return p.Flush(w)
}

func (gdm *GroupDropMessage) Decode(r *wire.Reader) error {
	var err error

	gdm.GroupSequence, err = r.ReadU53()
	if err != nil {
		return err
	}

	gdm.Count, err = r.ReadU53()
	if err != nil {
		return err
	}

	gdm.ErrorCode, err = r.ReadU53()
	return err
}
