package message

import (
	"fmt"
	"maps"
	"slices"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

/*
 * Extensions {
 *   Count (u53),
 *   Extension {
 *     ID (u62),
 *     Length (u53),
 *     Value (bytes),
 *   } ...
 * }
 */
type Extensions map[uint64][]byte

func (e Extensions) append(p *wire.Buffer) {
	p.AppendU53(uint64(len(e)))

	// Sorted so the encoding is deterministic.
	for _, id := range slices.Sorted(maps.Keys(e)) {
		p.AppendU62(id)
		p.AppendBytes(e[id])
	}
}

func readExtensions(r *wire.Reader) (Extensions, error) {
	count, err := r.ReadU53()
	if err != nil {
		return nil, err
	}

	ext := make(Extensions)
	for range count {
		id, err := r.ReadU62()
		if err != nil {
			return nil, err
		}

		value, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}

		if _, ok := ext[id]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateExtension, id)
		}
		ext[id] = value
	}

	return ext, nil
}
