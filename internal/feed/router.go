package feed

import "time"

// handleMessage attributes an inbound message to the single in-flight request,
// applies it if that feed is still displayed, then drains the pending slot.
func (m *Manager) handleMessage(sess *session, payload []byte) {
	if sess != m.session {
		return
	}
	k := m.inFlight
	if k == KindNone {
		responsesTotal.WithLabelValues("", "unsolicited").Inc()
		m.log.Warn().Str("node", m.node).Int("bytes", len(payload)).Msg("message with no request in flight")
		return
	}
	m.inFlight = KindNone
	m.store.endFetch(k)

	recs, n, err := decode(k, payload)
	switch {
	case err != nil:
		responsesTotal.WithLabelValues(string(k), "parse_error").Inc()
		m.log.Error().Err(err).Str("feed", string(k)).Int("bytes", len(payload)).Msg("decode response")
		m.emit(EventResponseParseError, k, map[string]any{"error": err.Error()})
		if k == m.active {
			m.store.clearLoading(k)
		}
	case k == m.active:
		m.store.apply(k, recs, time.Now())
		responsesTotal.WithLabelValues(string(k), "applied").Inc()
		m.emit(EventSnapshotUpdated, k, map[string]any{"records": n})
	default:
		responsesTotal.WithLabelValues(string(k), "discarded").Inc()
		m.log.Debug().Str("feed", string(k)).Str("active", string(m.active)).Msg("discarding response for hidden feed")
		m.emit(EventResponseDiscarded, k, map[string]any{"active": string(m.active)})
	}
	m.drain()
}
