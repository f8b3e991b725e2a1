package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"livefeed/internal/channel"
	"livefeed/internal/feed"
	"livefeed/internal/httpapi"
)

// fakeAgent is a node agent speaking the process websocket protocol. Replies
// can be held back per test to exercise the single-flight gate.
type fakeAgent struct {
	mu      sync.Mutex
	ps, net string
	reqs    []map[string]any
	conns   int
	gate    chan struct{} // when non-nil, each reply waits for a receive
	wsConns []*websocket.Conn
}

func (a *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{}
	c, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer c.Close()
	a.mu.Lock()
	a.conns++
	a.wsConns = append(a.wsConns, c)
	a.mu.Unlock()
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var req map[string]any
		_ = json.Unmarshal(msg, &req)
		a.mu.Lock()
		a.reqs = append(a.reqs, req)
		reply, gate := a.ps, a.gate
		if req["type"] == "net" {
			reply = a.net
		}
		a.mu.Unlock()
		if gate != nil {
			<-gate
		}
		if err := c.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
			return
		}
	}
}

func (a *fakeAgent) requests() []map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]map[string]any(nil), a.reqs...)
}

func (a *fakeAgent) connections() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conns
}

// dropAll closes every agent-side connection abruptly.
func (a *fakeAgent) dropAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.wsConns {
		_ = c.Close()
	}
}

// newBridge wires the full stack: agent <- websocket <- feed.Pool <- httpapi.
func newBridge(t *testing.T, a *fakeAgent) (*httptest.Server, *feed.Pool) {
	t.Helper()
	agentSrv := httptest.NewServer(a)
	t.Cleanup(agentSrv.Close)
	pool := feed.NewPool(feed.ManagerConfig{
		Dialer:            &channel.WSDialer{Endpoint: agentSrv.URL + "/api/v2/process/ws"},
		GraceWindow:       50 * time.Millisecond,
		ReadyPollInterval: 5 * time.Millisecond,
		ReadyTimeout:      2 * time.Second,
	})
	t.Cleanup(pool.Close)
	srv := httptest.NewServer(httpapi.NewMux(pool))
	t.Cleanup(srv.Close)
	return srv, pool
}

func httpDo(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("json: %v (%s)", err, b)
	}
	return v
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
