package feed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"livefeed/internal/channel"
	"livefeed/pkg/types"
)

// Manager owns one node's channel and everything multiplexed over it.
//
// All channel, gate and poller state is confined to a single loop goroutine.
// Public methods hand a closure to the loop and wait for it to run; timer and
// connection callbacks post closures without waiting. The Store is the only
// state read directly from other goroutines.
type Manager struct {
	cfg   ManagerConfig
	log   zerolog.Logger
	store *Store
	bus   *Broadcaster

	ops       chan func()
	quit      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once

	// Loop-owned state below.
	node       string
	state      ConnState
	refs       int
	conn       channel.Conn
	session    *session
	dialing    *session
	dialCancel context.CancelFunc

	teardown    *time.Timer
	teardownGen uint64

	inFlight Kind
	pending  Kind
	active   Kind
	poll     *pollSchedule
}

// session ties connection callbacks to the dial that produced them so events
// from a replaced connection are ignored.
type session struct {
	node string
	dead bool
}

func (m *Manager) loop() {
	defer close(m.loopDone)
	for {
		select {
		case fn := <-m.ops:
			fn()
		case <-m.quit:
			return
		}
	}
}

// do runs fn on the loop and waits for it. It reports false after Close.
func (m *Manager) do(fn func()) bool {
	done := make(chan struct{})
	select {
	case m.ops <- func() { fn(); close(done) }:
	case <-m.quit:
		return false
	}
	<-done
	return true
}

// post queues fn on the loop without waiting for it to run. It reports false
// when the loop has stopped and fn was dropped.
func (m *Manager) post(fn func()) bool {
	select {
	case m.ops <- fn:
		return true
	case <-m.quit:
		return false
	}
}

// Close tears the channel down immediately and stops the loop.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.do(func() {
			m.cancelTeardown(false)
			m.refs = 0
			channelRefs.WithLabelValues(m.node).Set(0)
			m.closeChannel("shutdown")
		})
		close(m.quit)
		<-m.loopDone
		m.bus.Close()
	})
}

// Store exposes the feed state for readers.
func (m *Manager) Store() *Store { return m.store }

// Subscribe streams this manager's events. Call cancel to unsubscribe. The
// channel is closed when the Manager is closed.
func (m *Manager) Subscribe(buffer int) (<-chan Event, func()) {
	return m.bus.Subscribe(buffer)
}

// SetEventPublisher installs an additional event sink.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	m.do(func() { m.cfg.Publisher = p })
}

// State returns the channel state.
func (m *Manager) State() ConnState {
	st := StateClosed
	m.do(func() { st = m.state })
	return st
}

// Ready reports whether the channel is open.
func (m *Manager) Ready() bool { return m.State() == StateOpen }

// Status returns a snapshot of the channel and gate bookkeeping.
func (m *Manager) Status() types.StatusResponse {
	resp := types.StatusResponse{State: string(StateClosed)}
	m.do(func() {
		resp = types.StatusResponse{
			Node:              m.node,
			State:             string(m.state),
			Refs:              m.refs,
			Active:            string(m.active),
			InFlight:          string(m.inFlight),
			Pending:           string(m.pending),
			TeardownScheduled: m.teardown != nil,
		}
	})
	return resp
}

// View returns the current state of one feed.
func (m *Manager) View(k Kind) (types.FeedResponse, error) { return m.store.View(k) }

// UpdateFilter merges p into k's filter criteria. The new criteria are sent
// with the next request for k.
func (m *Manager) UpdateFilter(k Kind, p types.FilterPatch) error {
	var err error
	if !m.do(func() { err = m.store.UpdateFilter(k, p) }) {
		return closedError{what: "manager"}
	}
	return err
}

// ResetFilter restores k's filter criteria to match everything.
func (m *Manager) ResetFilter(k Kind) error {
	var err error
	if !m.do(func() { err = m.store.ResetFilter(k) }) {
		return closedError{what: "manager"}
	}
	return err
}

func (m *Manager) emit(name string, k Kind, fields map[string]any) {
	e := Event{Name: name, Node: m.node, Feed: k, Time: time.Now(), Fields: fields}
	m.cfg.Publisher.Publish(e)
	m.bus.Publish(e)
}

func (m *Manager) setState(st ConnState) {
	if m.state == st {
		return
	}
	prev := m.state
	m.state = st
	if st == StateOpen {
		channelOpen.WithLabelValues(m.node).Set(1)
	} else {
		channelOpen.WithLabelValues(m.node).Set(0)
	}
	m.emit(EventStateChanged, KindNone, map[string]any{"from": string(prev), "to": string(st)})
}
