package feed

import (
	"context"
	"time"

	"livefeed/internal/channel"
)

// Connect takes a reference on the node's channel, opening it if no channel
// exists and no attempt is in progress. A scheduled teardown is cancelled.
func (m *Manager) Connect(node string) {
	m.do(func() { m.connect(node) })
}

// Disconnect releases one reference. When the count reaches zero the channel
// is torn down after the grace window unless Connect is called first.
func (m *Manager) Disconnect() {
	m.do(m.disconnect)
}

func (m *Manager) connect(node string) {
	m.cancelTeardown(true)
	m.refs++
	if m.node == "" {
		m.node = node
	}
	channelRefs.WithLabelValues(m.node).Set(float64(m.refs))

	if m.conn != nil || m.dialing != nil {
		if node != m.node {
			m.log.Warn().Str("node", m.node).Str("requested", node).Msg("channel already bound to another node; reusing it")
		}
		return
	}
	m.open(node)
}

// disconnect with no reference held is a no-op: nothing reached zero.
func (m *Manager) disconnect() {
	if m.refs == 0 {
		m.log.Debug().Str("node", m.node).Msg("disconnect without a reference")
		return
	}
	m.refs--
	channelRefs.WithLabelValues(m.node).Set(float64(m.refs))
	if m.refs == 0 && m.teardown == nil {
		m.scheduleTeardown()
	}
}

func (m *Manager) scheduleTeardown() {
	m.teardownGen++
	gen := m.teardownGen
	m.teardown = time.AfterFunc(m.cfg.GraceWindow, func() {
		m.post(func() { m.fireTeardown(gen) })
	})
	m.log.Debug().Str("node", m.node).Dur("grace", m.cfg.GraceWindow).Msg("teardown scheduled")
	m.emit(EventTeardownScheduled, KindNone, map[string]any{"grace_ms": m.cfg.GraceWindow.Milliseconds()})
}

func (m *Manager) cancelTeardown(notify bool) {
	if m.teardown == nil {
		return
	}
	m.teardown.Stop()
	m.teardown = nil
	m.teardownGen++
	if notify {
		m.emit(EventTeardownCancelled, KindNone, nil)
	}
}

func (m *Manager) fireTeardown(gen uint64) {
	if gen != m.teardownGen || m.teardown == nil {
		return
	}
	m.teardown = nil
	if m.refs != 0 {
		return
	}
	m.emit(EventTeardownFired, KindNone, nil)
	m.closeChannel("teardown")
}

// open starts a dial in the background; the result is handed back to the loop.
func (m *Manager) open(node string) {
	m.node = node
	sess := &session{node: node}
	m.dialing = sess
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DialTimeout)
	m.dialCancel = cancel
	m.setState(StateConnecting)
	m.log.Info().Str("node", node).Msg("channel connecting")
	m.emit(EventChannelConnecting, KindNone, nil)

	ev := channel.Events{
		OnMessage: func(p []byte) { m.post(func() { m.handleMessage(sess, p) }) },
		OnClose:   func(err error) { m.post(func() { m.handleClose(sess, err) }) },
	}
	dialer := m.cfg.Dialer
	go func() {
		defer cancel()
		conn, err := dialer.Dial(ctx, node, ev)
		if !m.post(func() { m.handleDial(sess, conn, err) }) && conn != nil {
			// Manager closed mid-dial.
			_ = conn.Close()
		}
	}()
}

func (m *Manager) handleDial(sess *session, conn channel.Conn, err error) {
	if sess != m.dialing {
		// Torn down while connecting.
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	m.dialing = nil
	m.dialCancel = nil
	if err != nil {
		channelDialsTotal.WithLabelValues("error").Inc()
		m.log.Error().Err(err).Str("node", sess.node).Msg("channel dial failed")
		m.emit(EventChannelError, KindNone, map[string]any{"error": err.Error()})
		m.setState(StateClosed)
		return
	}
	if sess.dead {
		_ = conn.Close()
		channelDialsTotal.WithLabelValues("error").Inc()
		m.log.Warn().Str("node", sess.node).Msg("channel closed during handshake")
		m.setState(StateClosed)
		return
	}
	channelDialsTotal.WithLabelValues("ok").Inc()
	m.conn = conn
	m.session = sess
	m.setState(StateOpen)
	m.log.Info().Str("node", sess.node).Str("conn", conn.ID()).Msg("channel open")
	m.emit(EventChannelOpen, KindNone, map[string]any{"conn": conn.ID()})
}

// handleClose reacts to the read side of a connection ending.
func (m *Manager) handleClose(sess *session, err error) {
	sess.dead = true
	if sess != m.session {
		return
	}
	if err != nil {
		m.log.Warn().Err(err).Str("node", m.node).Msg("channel closed by transport")
		m.emit(EventChannelError, KindNone, map[string]any{"error": err.Error()})
	}
	m.resetChannel()
	m.emit(EventChannelClosed, KindNone, map[string]any{"reason": "transport"})
}

// closeChannel is the local teardown: polling stops, any dial is abandoned
// and the connection is closed.
func (m *Manager) closeChannel(reason string) {
	m.stopPolling()
	if m.dialing != nil {
		if m.dialCancel != nil {
			m.dialCancel()
		}
		m.dialing = nil
		m.dialCancel = nil
	}
	hadChannel := m.conn != nil || m.state == StateConnecting
	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			m.log.Debug().Err(err).Msg("close connection")
		}
	}
	m.resetChannel()
	if hadChannel {
		m.log.Info().Str("node", m.node).Str("reason", reason).Msg("channel closed")
		m.emit(EventChannelClosed, KindNone, map[string]any{"reason": reason})
	}
}

// resetChannel drops the handle and clears gate bookkeeping. Loading flags are
// left untouched.
func (m *Manager) resetChannel() {
	m.conn = nil
	m.session = nil
	m.inFlight = KindNone
	m.pending = KindNone
	m.store.clearFetching()
	if m.state != StateIdle || m.node != "" {
		m.setState(StateClosed)
	}
}
