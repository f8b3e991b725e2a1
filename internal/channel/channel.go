package channel

import (
	"context"
	"errors"
)

// ErrClosed is returned by Send once the connection has been closed.
var ErrClosed = errors.New("channel: connection closed")

// errSendQueueFull signals that the write pump is not keeping up.
var errSendQueueFull = errors.New("channel: send queue full")

// Events receives the inbound side of one connection. Both callbacks are
// invoked from the connection's read goroutine; OnClose is called exactly once.
// A nil error passed to OnClose means the connection was closed locally.
type Events struct {
	OnMessage func(payload []byte)
	OnClose   func(err error)
}

// Conn is an open duplex connection to one node.
type Conn interface {
	// ID identifies this connection in logs and events.
	ID() string
	// Send queues one text frame for writing.
	Send(payload []byte) error
	// Close shuts the connection down. Safe to call more than once.
	Close() error
}

// Dialer opens connections. A Conn returned without error is open.
type Dialer interface {
	Dial(ctx context.Context, node string, ev Events) (Conn, error)
}
