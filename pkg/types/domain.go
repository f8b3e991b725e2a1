package types

// ProcessRecord is one row of the process feed as reported by the node agent.
type ProcessRecord struct {
	// Process id.
	// example: 1234
	PID int32 `json:"PID" example:"1234"`
	// Executable name.
	// example: nginx
	Name string `json:"name" example:"nginx"`
	// Parent process id.
	// example: 1
	PPID int32 `json:"PPID" example:"1"`
	// Owning user.
	// example: www-data
	Username string `json:"username" example:"www-data"`
	// Comma separated process states.
	// example: sleep
	Status string `json:"status" example:"sleep"`
	// Start time formatted by the agent.
	// example: 2024-1-2 15:04:05
	StartTime      string `json:"startTime" example:"2024-1-2 15:04:05"`
	NumThreads     int32  `json:"numThreads"`
	NumConnections int    `json:"numConnections"`
	// example: 0.50%
	CPUPercent string `json:"cpuPercent" example:"0.50%"`

	DiskRead  string `json:"diskRead"`
	DiskWrite string `json:"diskWrite"`
	CmdLine   string `json:"cmdLine"`

	RSS    string `json:"rss"`
	VMS    string `json:"vms"`
	HWM    string `json:"hwm"`
	Data   string `json:"data"`
	Stack  string `json:"stack"`
	Locked string `json:"locked"`
	Swap   string `json:"swap"`
	Dirty  string `json:"dirty"`
	PSS    string `json:"pss"`
	USS    string `json:"uss"`
	Shared string `json:"shared"`
	Text   string `json:"text"`

	CPUValue float64 `json:"cpuValue"`
	RSSValue uint64  `json:"rssValue"`

	Envs []string `json:"envs,omitempty"`

	OpenFiles []OpenFile         `json:"openFiles,omitempty"`
	Connects  []ConnectionRecord `json:"connects,omitempty"`
}

// OpenFile is a file descriptor held by a process.
type OpenFile struct {
	Path string `json:"path"`
	FD   uint64 `json:"fd"`
}

// Addr is an ip/port pair as encoded by the agent.
type Addr struct {
	// example: 0.0.0.0
	IP string `json:"ip" example:"0.0.0.0"`
	// example: 80
	Port uint32 `json:"port" example:"80"`
}

// ConnectionRecord is one row of the network feed.
type ConnectionRecord struct {
	// Socket type as reported by the agent.
	// example: tcp
	Type string `json:"type" example:"tcp"`
	// Connection state.
	// example: LISTEN
	Status     string `json:"status" example:"LISTEN"`
	LocalAddr  Addr   `json:"localaddr"`
	RemoteAddr Addr   `json:"remoteaddr"`
	// Owning process id.
	// example: 1234
	PID int32 `json:"PID" example:"1234"`
	// Owning process name.
	// example: nginx
	Name string `json:"name" example:"nginx"`
}
