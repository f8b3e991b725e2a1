package feed

import (
	"math/rand"
	"testing"
)

func TestRequest_NoOpWhenNotOpen(t *testing.T) {
	d := &fakeDialer{hold: make(chan struct{})}
	m, pub := testManager(t, d)
	if err := m.Request(KindProcess); err != nil {
		t.Fatalf("request while idle: %v", err)
	}
	m.Connect("node-1")
	if err := m.Request(KindProcess); err != nil {
		t.Fatalf("request while connecting: %v", err)
	}
	if s := m.Status(); s.InFlight != "" || s.Pending != "" {
		t.Fatalf("expected untouched gate, got %+v", s)
	}
	if pub.Count(EventRequestSent) != 0 {
		t.Fatalf("nothing should have been sent")
	}
}

func TestRequest_UnknownFeed(t *testing.T) {
	m, _, _, _ := openManager(t)
	if err := m.Request(Kind("disk")); !IsUnknownFeed(err) {
		t.Fatalf("expected unknown feed error, got %v", err)
	}
}

// Three net requests while a request is in flight yield one extra send.
func TestGate_CoalescesRepeatedRequests(t *testing.T) {
	m, _, c, pub := openManager(t)
	mustRequest(t, m, KindProcess)
	for i := 0; i < 3; i++ {
		mustRequest(t, m, KindNetwork)
	}
	if got := c.sentKinds(); len(got) != 1 {
		t.Fatalf("expected 1 send while busy, got %v", got)
	}
	c.reply(`[]`)
	got := c.sentKinds()
	if len(got) != 2 || got[1] != KindNetwork {
		t.Fatalf("expected ps then net, got %v", got)
	}
	c.reply(`[]`)
	if got := c.sentKinds(); len(got) != 2 {
		t.Fatalf("pending slot should be empty, got extra sends %v", got)
	}
	if n := pub.Count(EventRequestCoalesced); n != 3 {
		t.Fatalf("expected 3 coalesced events, got %d", n)
	}
}

// request(ps); while busy net, net, ps: pending ends as ps, one extra send.
func TestScenarioC_PendingSlotIsOverwritten(t *testing.T) {
	m, _, c, _ := openManager(t)
	mustRequest(t, m, KindProcess)
	mustRequest(t, m, KindNetwork)
	mustRequest(t, m, KindNetwork)
	mustRequest(t, m, KindProcess)
	if s := m.Status(); s.InFlight != "ps" || s.Pending != "ps" {
		t.Fatalf("expected in_flight=ps pending=ps, got %+v", s)
	}
	c.reply(`[]`)
	got := c.sentKinds()
	if len(got) != 2 || got[1] != KindProcess {
		t.Fatalf("expected exactly one extra ps send, got %v", got)
	}
	if s := m.Status(); s.InFlight != "ps" || s.Pending != "" {
		t.Fatalf("unexpected gate after drain: %+v", s)
	}
}

// At any point, sends minus replies is 0 or 1.
func TestGate_SingleFlightUnderRandomTraffic(t *testing.T) {
	m, _, c, _ := openManager(t)
	rng := rand.New(rand.NewSource(7))
	replies := 0
	for i := 0; i < 300; i++ {
		switch rng.Intn(3) {
		case 0:
			mustRequest(t, m, KindProcess)
		case 1:
			mustRequest(t, m, KindNetwork)
		case 2:
			if m.Status().InFlight != "" {
				c.reply(`[]`)
				replies++
			}
		}
		outstanding := len(c.sentKinds()) - replies
		if outstanding < 0 || outstanding > 1 {
			t.Fatalf("step %d: %d outstanding requests", i, outstanding)
		}
		s := m.Status()
		if (outstanding == 1) != (s.InFlight != "") {
			t.Fatalf("step %d: outstanding=%d but status %+v", i, outstanding, s)
		}
	}
}

func TestGate_SendFailureDropsChannel(t *testing.T) {
	m, _, c, pub := openManager(t)
	c.mu.Lock()
	c.sendErr = errBoom
	c.mu.Unlock()
	mustRequest(t, m, KindProcess)
	s := m.Status()
	if s.State != string(StateClosed) || s.InFlight != "" {
		t.Fatalf("expected closed channel with empty gate, got %+v", s)
	}
	if pub.Count(EventChannelError) != 1 {
		t.Fatalf("expected channel_error, got %+v", pub.Events())
	}
}

func mustRequest(t *testing.T, m *Manager, k Kind) {
	t.Helper()
	if err := m.Request(k); err != nil {
		t.Fatalf("request %s: %v", k, err)
	}
}
