package types

// Wire discriminators understood by the node agent.
const (
	RequestTypeProcess = "ps"
	RequestTypeNetwork = "net"
)

// ProcessRequest asks the agent for the process list. Unset pid means "any".
type ProcessRequest struct {
	Type     string `json:"type"`
	PID      *int32 `json:"pid,omitempty"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// NetworkRequest asks the agent for the connection list.
type NetworkRequest struct {
	Type        string  `json:"type"`
	ProcessID   *int32  `json:"processID,omitempty"`
	ProcessName string  `json:"processName"`
	Port        *uint32 `json:"port,omitempty"`
}
