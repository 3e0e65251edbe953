package transfork

import "fmt"

// Version identifies a transfork protocol draft.
type Version uint64

const (
	Fork00 Version = 0xff0bad00
	Fork01 Version = 0xff0bad01
	Fork02 Version = 0xff0bad02
)

// DefaultVersions are offered by clients and accepted by servers when
// Config.Versions is empty.
var DefaultVersions = []Version{Fork02}

func (v Version) String() string {
	switch v {
	case Fork00:
		return "fork-00"
	case Fork01:
		return "fork-01"
	case Fork02:
		return "fork-02"
	default:
		return fmt.Sprintf("unknown(0x%x)", uint64(v))
	}
}

// NextProtoMOQ is the ALPN used for native QUIC connections.
const NextProtoMOQ = "moq-00"
