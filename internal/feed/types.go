package feed

import "livefeed/pkg/types"

// Kind identifies one of the polled telemetry feeds.
type Kind string

const (
	KindNone    Kind = ""
	KindProcess Kind = types.RequestTypeProcess
	KindNetwork Kind = types.RequestTypeNetwork
)

// Kinds lists every feed in display order.
var Kinds = []Kind{KindProcess, KindNetwork}

// ParseKind maps a wire or URL name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindProcess, KindNetwork:
		return Kind(s), nil
	}
	return KindNone, unknownFeedError{name: s}
}

// ConnState is the lifecycle state of a node's channel.
type ConnState string

const (
	StateIdle       ConnState = "idle"
	StateConnecting ConnState = "connecting"
	StateOpen       ConnState = "open"
	StateClosed     ConnState = "closed"
)
