package message

// StreamType is the first byte of every stream and selects the message that follows.
type StreamType byte

// Bidirectional stream types.
const (
	StreamTypeSession          StreamType = 0x0
	StreamTypeAnnounceInterest StreamType = 0x1
	StreamTypeSubscribe        StreamType = 0x2
	StreamTypeDatagrams        StreamType = 0x3
	StreamTypeFetch            StreamType = 0x4
	StreamTypeInfoRequest      StreamType = 0x5
)

// Unidirectional stream types.
const (
	StreamTypeGroup StreamType = 0x0
)

func (typ StreamType) String() string {
	switch typ {
	case StreamTypeSession:
		return "session"
	case StreamTypeAnnounceInterest:
		return "announce_interest"
	case StreamTypeSubscribe:
		return "subscribe"
	case StreamTypeDatagrams:
		return "datagrams"
	case StreamTypeFetch:
		return "fetch"
	case StreamTypeInfoRequest:
		return "info_request"
	default:
		return "unknown"
	}
}
