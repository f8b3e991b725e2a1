package feed

import "time"

// pollSchedule is the timer set of one StartPolling call. Callbacks compare
// against m.poll so a stopped or replaced schedule never fires.
type pollSchedule struct {
	kind     Kind
	interval time.Duration
	stop     chan struct{}
	timer    *time.Timer
}

// StartPolling displays k and fetches it every interval. Any other polling
// is stopped first, so calling it again restarts the cadence from now. When
// the channel is not open yet the first fetch waits for it, giving up after
// the ready timeout; interval ticks keep trying regardless.
func (m *Manager) StartPolling(k Kind, interval, initialDelay time.Duration) error {
	if _, err := ParseKind(string(k)); err != nil {
		return err
	}
	if !m.do(func() { m.startPolling(k, interval, initialDelay) }) {
		return closedError{what: "manager"}
	}
	return nil
}

// StopPolling cancels the polling timers and clears the displayed feed. A
// request already in flight is not cancelled.
func (m *Manager) StopPolling() {
	m.do(m.stopPolling)
}

func (m *Manager) startPolling(k Kind, interval, initialDelay time.Duration) {
	m.stopPolling()
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ps := &pollSchedule{kind: k, interval: interval, stop: make(chan struct{})}
	m.poll = ps
	m.active = k
	m.log.Debug().Str("feed", string(k)).Dur("interval", interval).Dur("initial_delay", initialDelay).Msg("polling started")

	if m.state == StateOpen {
		m.scheduleFirst(ps, initialDelay)
	} else {
		m.waitReady(ps, initialDelay, time.Now().Add(m.cfg.ReadyTimeout))
	}
	go m.runTicker(ps)
}

func (m *Manager) stopPolling() {
	if ps := m.poll; ps != nil {
		close(ps.stop)
		if ps.timer != nil {
			ps.timer.Stop()
		}
		m.poll = nil
	}
	m.active = KindNone
}

func (m *Manager) runTicker(ps *pollSchedule) {
	t := time.NewTicker(ps.interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			m.post(func() {
				if m.poll == ps {
					m.tick(ps.kind)
				}
			})
		case <-ps.stop:
			return
		case <-m.quit:
			return
		}
	}
}

func (m *Manager) scheduleFirst(ps *pollSchedule, delay time.Duration) {
	if delay <= 0 {
		m.tick(ps.kind)
		return
	}
	ps.timer = time.AfterFunc(delay, func() {
		m.post(func() {
			if m.poll == ps {
				m.tick(ps.kind)
			}
		})
	})
}

func (m *Manager) waitReady(ps *pollSchedule, delay time.Duration, deadline time.Time) {
	ps.timer = time.AfterFunc(m.cfg.ReadyPollInterval, func() {
		m.post(func() {
			if m.poll != ps {
				return
			}
			switch {
			case m.state == StateOpen:
				m.scheduleFirst(ps, delay)
			case !time.Now().Before(deadline):
				ps.timer = nil
				m.log.Warn().Str("feed", string(ps.kind)).Dur("timeout", m.cfg.ReadyTimeout).Msg("channel not ready; skipping initial fetch")
				m.emit(EventReadyWaitTimeout, ps.kind, nil)
			default:
				m.waitReady(ps, delay, deadline)
			}
		})
	})
}

// tick is one poll. A feed still waiting on its own reply skips the tick
// rather than stacking another request behind it.
func (m *Manager) tick(k Kind) {
	if m.state != StateOpen {
		return
	}
	if m.store.Fetching(k) {
		return
	}
	m.request(k)
}
