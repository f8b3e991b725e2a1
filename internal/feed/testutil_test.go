package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"livefeed/internal/channel"
)

// fakeDialer hands out in-memory connections. When hold is non-nil, Dial
// blocks until it is closed so tests can observe the connecting state.
// deaf makes the hold ignore context cancellation, like a handshake that
// completes regardless.
type fakeDialer struct {
	mu    sync.Mutex
	hold  chan struct{}
	deaf  bool
	err   error
	nodes []string
	conns []*fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context, node string, ev channel.Events) (channel.Conn, error) {
	d.mu.Lock()
	d.nodes = append(d.nodes, node)
	hold, deaf, err := d.hold, d.deaf, d.err
	d.mu.Unlock()
	if hold != nil && deaf {
		<-hold
	} else if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	c := &fakeConn{id: fmt.Sprintf("fake-%d", d.dials()), ev: ev}
	d.mu.Lock()
	d.conns = append(d.conns, c)
	d.mu.Unlock()
	return c, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.nodes)
}

func (d *fakeDialer) conn(t *testing.T, i int) *fakeConn {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		t.Fatalf("no connection #%d (have %d)", i, len(d.conns))
	}
	return d.conns[i]
}

type fakeConn struct {
	id      string
	ev      channel.Events
	mu      sync.Mutex
	sent    [][]byte
	closed  bool
	sendErr error
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return channel.ErrClosed
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, append([]byte(nil), p...))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	// Like the websocket read pump, report the close from another goroutine.
	go c.ev.OnClose(nil)
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// reply delivers an inbound message. Once it returns, the Manager's loop has
// accepted the message, so any later Manager call observes its effects.
func (c *fakeConn) reply(payload string) { c.ev.OnMessage([]byte(payload)) }

// remoteClose simulates the peer dropping the connection.
func (c *fakeConn) remoteClose(err error) {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.ev.OnClose(err)
}

func (c *fakeConn) sentPayloads() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.sent))
	for _, p := range c.sent {
		var m map[string]any
		_ = json.Unmarshal(p, &m)
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) sentKinds() []Kind {
	var out []Kind
	for _, m := range c.sentPayloads() {
		s, _ := m["type"].(string)
		out = append(out, Kind(s))
	}
	return out
}

var errBoom = errors.New("boom")

// testManager builds a Manager with short timings and registers cleanup.
func testManager(t *testing.T, d *fakeDialer) (*Manager, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	m := NewWithConfig(ManagerConfig{
		Dialer:            d,
		GraceWindow:       40 * time.Millisecond,
		ReadyPollInterval: 5 * time.Millisecond,
		ReadyTimeout:      time.Second,
		Publisher:         pub,
	})
	t.Cleanup(m.Close)
	return m, pub
}

// openManager returns a Manager with one reference and an open channel.
func openManager(t *testing.T) (*Manager, *fakeDialer, *fakeConn, *MemoryPublisher) {
	t.Helper()
	d := &fakeDialer{}
	m, pub := testManager(t, d)
	m.Connect("node-1")
	waitFor(t, func() bool { return m.State() == StateOpen }, "channel open")
	return m, d, d.conn(t, 0), pub
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func int32p(v int32) *int32    { return &v }
func uint32p(v uint32) *uint32 { return &v }
func strp(v string) *string    { return &v }
