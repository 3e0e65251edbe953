package transfork

import (
	"slices"
	"strings"

	"github.com/okdaichi/transfork/transfork/internal/wire"
)

// Path names a track as a sequence of segments, e.g. ["room1", "cam"].
type Path []string

func (p Path) String() string {
	return strings.Join(p, "/")
}

func (p Path) Equal(other Path) bool {
	return slices.Equal(p, other)
}

func (p Path) HasPrefix(prefix Path) bool {
	return len(p) >= len(prefix) && slices.Equal(p[:len(prefix)], prefix)
}

// TrimPrefix returns the segments after prefix.
// It reports false when p does not start with prefix.
func (p Path) TrimPrefix(prefix Path) (Path, bool) {
	if !p.HasPrefix(prefix) {
		return nil, false
	}
	return slices.Clone(p[len(prefix):]), true
}

// Join returns a new path with suffix appended.
func (p Path) Join(suffix ...string) Path {
	joined := make(Path, 0, len(p)+len(suffix))
	joined = append(joined, p...)
	return append(joined, suffix...)
}

// key is a map key unique per path. Segments may contain "/".
func (p Path) key() string {
	return string(wire.AppendPath(nil, p))
}
