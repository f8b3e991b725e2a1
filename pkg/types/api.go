package types

// PollRequest starts polling one feed on a node.
type PollRequest struct {
	// Feed to display: ps or net.
	// example: ps
	Feed string `json:"feed" example:"ps"`
	// Interval between fetches in milliseconds. Zero uses the server default.
	// example: 3000
	IntervalMS int `json:"interval_ms,omitempty" example:"3000"`
	// Delay before the first fetch in milliseconds.
	// example: 0
	InitialDelayMS int `json:"initial_delay_ms,omitempty" example:"0"`
}

// FilterPatch is a partial update of a feed's filter criteria. Only non-null
// fields relevant to the feed are applied.
type FilterPatch struct {
	// Process feed: match a single pid.
	PID *int32 `json:"pid,omitempty"`
	// Process feed: substring of the owning user.
	Username *string `json:"username,omitempty"`
	// Process feed: substring of the process name.
	Name *string `json:"name,omitempty"`
	// Network feed: owning process id.
	ProcessID *int32 `json:"processID,omitempty"`
	// Network feed: owning process name.
	ProcessName *string `json:"processName,omitempty"`
	// Network feed: local or remote port.
	Port *uint32 `json:"port,omitempty"`
}

// FeedResponse is the current state of one feed.
type FeedResponse struct {
	// example: ps
	Feed string `json:"feed" example:"ps"`
	// True while the first fetch (or the first fetch after a reset) is outstanding.
	// example: false
	Loading bool `json:"loading" example:"false"`
	// True while this feed's own request is awaiting a reply.
	// example: false
	Fetching bool `json:"fetching" example:"false"`
	// Unix milliseconds of the last accepted snapshot; zero if none yet.
	UpdatedAt   int64              `json:"updated_at"`
	Processes   []ProcessRecord    `json:"processes,omitempty"`
	Connections []ConnectionRecord `json:"connections,omitempty"`
	// Current filter criteria; the request body sent on each poll.
	Filter any `json:"filter"`
}

// StatusResponse summarizes a node's channel for GET /nodes/{node}/status.
type StatusResponse struct {
	// example: node-1
	Node string `json:"node" example:"node-1"`
	// Channel state: idle, connecting, open or closed.
	// example: open
	State string `json:"state" example:"open"`
	// Outstanding connect references.
	// example: 1
	Refs int `json:"refs" example:"1"`
	// Feed currently displayed, empty if none.
	// example: ps
	Active string `json:"active,omitempty" example:"ps"`
	// Feed whose request is in flight, empty if none.
	InFlight string `json:"in_flight,omitempty"`
	// Feed waiting in the pending slot, empty if none.
	Pending string `json:"pending,omitempty"`
	// True while a teardown is scheduled.
	TeardownScheduled bool `json:"teardown_scheduled"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: unknown feed
	Error string `json:"error" example:"unknown feed"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
