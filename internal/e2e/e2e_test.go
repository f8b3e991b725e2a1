package e2e

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"livefeed/pkg/types"
)

const (
	psRows  = `[{"PID":7,"name":"nginx","PPID":1,"username":"www-data","rssValue":4096}]`
	netRows = `[{"type":"tcp","status":"LISTEN","localaddr":{"ip":"0.0.0.0","port":22},"remoteaddr":{"ip":"","port":0},"PID":9,"name":"sshd"}]`
)

// TestE2E_PollProcessFeed drives a node through connect, poll, filter and
// view over HTTP against a real websocket agent.
func TestE2E_PollProcessFeed(t *testing.T) {
	a := &fakeAgent{ps: psRows, net: netRows}
	srv, _ := newBridge(t, a)
	base := srv.URL + "/nodes/edge-1"

	resp, body := httpDo(t, http.MethodPost, base+"/connect", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("connect status=%d body=%s", resp.StatusCode, body)
	}
	if resp, body = httpDo(t, http.MethodPatch, base+"/feeds/ps/filter", []byte(`{"name":"nginx"}`)); resp.StatusCode != http.StatusOK {
		t.Fatalf("filter status=%d body=%s", resp.StatusCode, body)
	}
	if resp, body = httpDo(t, http.MethodPut, base+"/poll", []byte(`{"feed":"ps","interval_ms":60000}`)); resp.StatusCode != http.StatusOK {
		t.Fatalf("poll status=%d body=%s", resp.StatusCode, body)
	}

	var view types.FeedResponse
	waitFor(t, func() bool {
		_, b := httpDo(t, http.MethodGet, base+"/feeds/ps", nil)
		view = decode[types.FeedResponse](t, b)
		return view.UpdatedAt != 0
	}, "first process snapshot")
	want := []types.ProcessRecord{{PID: 7, Name: "nginx", PPID: 1, Username: "www-data", RSSValue: 4096}}
	if diff := cmp.Diff(want, view.Processes); diff != "" {
		t.Fatalf("snapshot (-want +got):\n%s", diff)
	}
	if view.Loading || view.Fetching {
		t.Fatalf("flags not cleared: %+v", view)
	}
	reqs := a.requests()
	if len(reqs) != 1 || reqs[0]["type"] != "ps" || reqs[0]["name"] != "nginx" {
		t.Fatalf("unexpected agent requests %v", reqs)
	}
}

// Switching views while a reply is outstanding must not touch either feed,
// and the coalesced request goes out once the reply lands.
func TestE2E_SwitchFeedWhileInFlight(t *testing.T) {
	gate := make(chan struct{})
	a := &fakeAgent{ps: psRows, net: netRows, gate: gate}
	srv, _ := newBridge(t, a)
	base := srv.URL + "/nodes/edge-1"

	httpDo(t, http.MethodPost, base+"/connect", nil)
	httpDo(t, http.MethodPut, base+"/poll", []byte(`{"feed":"ps","interval_ms":60000}`))
	waitFor(t, func() bool { return len(a.requests()) == 1 }, "ps request at agent")
	httpDo(t, http.MethodPut, base+"/poll", []byte(`{"feed":"net","interval_ms":60000}`))

	_, b := httpDo(t, http.MethodGet, base+"/status", nil)
	st := decode[types.StatusResponse](t, b)
	if st.InFlight != "ps" || st.Pending != "net" || st.Active != "net" {
		t.Fatalf("unexpected gate %+v", st)
	}

	gate <- struct{}{} // release the ps reply; it is discarded
	waitFor(t, func() bool { return len(a.requests()) == 2 }, "pending net request drained")
	gate <- struct{}{}

	var net types.FeedResponse
	waitFor(t, func() bool {
		_, b := httpDo(t, http.MethodGet, base+"/feeds/net", nil)
		net = decode[types.FeedResponse](t, b)
		return net.UpdatedAt != 0
	}, "network snapshot")
	if len(net.Connections) != 1 || net.Connections[0].Name != "sshd" {
		t.Fatalf("unexpected connections %+v", net.Connections)
	}
	_, b = httpDo(t, http.MethodGet, base+"/feeds/ps", nil)
	if ps := decode[types.FeedResponse](t, b); len(ps.Processes) != 0 {
		t.Fatalf("hidden ps feed was updated: %+v", ps.Processes)
	}
}

// Two consumers share one channel; it closes only after both release it and
// the grace window passes.
func TestE2E_SharedChannelTeardown(t *testing.T) {
	a := &fakeAgent{ps: psRows, net: netRows}
	srv, _ := newBridge(t, a)
	base := srv.URL + "/nodes/edge-1"
	status := func() types.StatusResponse {
		_, b := httpDo(t, http.MethodGet, base+"/status", nil)
		return decode[types.StatusResponse](t, b)
	}

	httpDo(t, http.MethodPost, base+"/connect", nil)
	httpDo(t, http.MethodPost, base+"/connect", nil)
	waitFor(t, func() bool { return status().State == "open" }, "open")
	httpDo(t, http.MethodPost, base+"/disconnect", nil)
	if st := status(); st.Refs != 1 || st.TeardownScheduled {
		t.Fatalf("unexpected status after first release: %+v", st)
	}
	httpDo(t, http.MethodPost, base+"/disconnect", nil)
	waitFor(t, func() bool { return status().State == "closed" }, "teardown")
	if n := a.connections(); n != 1 {
		t.Fatalf("expected one agent connection, got %d", n)
	}
}

func TestE2E_AgentDropClosesChannel(t *testing.T) {
	a := &fakeAgent{ps: psRows, net: netRows}
	srv, _ := newBridge(t, a)
	base := srv.URL + "/nodes/edge-1"
	status := func() types.StatusResponse {
		_, b := httpDo(t, http.MethodGet, base+"/status", nil)
		return decode[types.StatusResponse](t, b)
	}
	httpDo(t, http.MethodPost, base+"/connect", nil)
	waitFor(t, func() bool { return status().State == "open" }, "open")
	a.dropAll()
	waitFor(t, func() bool { return status().State == "closed" }, "closed after agent drop")
	if st := status(); st.Refs != 1 {
		t.Fatalf("references survive a transport close: %+v", st)
	}
}

func TestE2E_UnknownFeed(t *testing.T) {
	srv, _ := newBridge(t, &fakeAgent{})
	resp, body := httpDo(t, http.MethodGet, srv.URL+"/nodes/edge-1/feeds/disk", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if e := decode[types.ErrorResponse](t, body); e.Code != http.StatusNotFound {
		t.Fatalf("unexpected error body %+v", e)
	}
}
