package feed

// Request asks the gate to fetch k. When a request is already in flight k
// replaces whatever is in the pending slot; otherwise k is sent immediately.
// It is a no-op unless the channel is open.
func (m *Manager) Request(k Kind) error {
	if _, err := ParseKind(string(k)); err != nil {
		return err
	}
	if !m.do(func() { m.request(k) }) {
		return closedError{what: "manager"}
	}
	return nil
}

func (m *Manager) request(k Kind) {
	if m.state != StateOpen || m.conn == nil {
		return
	}
	if m.inFlight != KindNone {
		m.pending = k
		coalescedTotal.WithLabelValues(string(k)).Inc()
		m.emit(EventRequestCoalesced, k, map[string]any{"in_flight": string(m.inFlight)})
		return
	}
	m.send(k)
}

// send marks k in flight and writes its request. The caller has checked that
// the gate is idle.
func (m *Manager) send(k Kind) {
	payload, err := m.store.requestPayload(k)
	if err != nil {
		m.log.Error().Err(err).Str("feed", string(k)).Msg("encode request")
		return
	}
	m.inFlight = k
	m.store.beginFetch(k)
	if err := m.conn.Send(payload); err != nil {
		m.log.Error().Err(err).Str("node", m.node).Str("feed", string(k)).Msg("send failed; dropping channel")
		m.emit(EventChannelError, k, map[string]any{"error": err.Error()})
		_ = m.conn.Close()
		m.resetChannel()
		m.emit(EventChannelClosed, KindNone, map[string]any{"reason": "send_failed"})
		return
	}
	requestsTotal.WithLabelValues(string(k)).Inc()
	m.log.Debug().Str("feed", string(k)).Int("bytes", len(payload)).Msg("request sent")
	m.emit(EventRequestSent, k, nil)
}

// drain sends whatever is waiting in the pending slot. Called once the
// in-flight slot has been cleared.
func (m *Manager) drain() {
	if m.pending == KindNone || m.state != StateOpen {
		return
	}
	k := m.pending
	m.pending = KindNone
	m.send(k)
}
