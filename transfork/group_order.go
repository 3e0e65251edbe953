package transfork

import "github.com/okdaichi/transfork/transfork/internal/message"

// GroupOrder is the order a publisher delivers groups in.
type GroupOrder uint64

const (
	GroupOrderAny        GroupOrder = GroupOrder(message.OrderAny)
	GroupOrderAscending  GroupOrder = GroupOrder(message.OrderAscending)
	GroupOrderDescending GroupOrder = GroupOrder(message.OrderDescending)
)

func (o GroupOrder) String() string {
	switch o {
	case GroupOrderAny:
		return "any"
	case GroupOrderAscending:
		return "ascending"
	case GroupOrderDescending:
		return "descending"
	default:
		return "unknown"
	}
}

// TrackPriority orders tracks against each other. Higher is more important.
type TrackPriority uint64

// GroupSequence numbers groups within a track, starting at 0.
type GroupSequence uint64
