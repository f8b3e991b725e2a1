package feed

import (
	"encoding/json"

	"livefeed/pkg/types"
)

// ProcessFilter narrows the process feed. Zero values match everything.
type ProcessFilter struct {
	PID      *int32 `json:"pid,omitempty"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// NetworkFilter narrows the network feed. Zero values match everything.
type NetworkFilter struct {
	ProcessID   *int32  `json:"processID,omitempty"`
	ProcessName string  `json:"processName"`
	Port        *uint32 `json:"port,omitempty"`
}

func (f ProcessFilter) clone() ProcessFilter {
	if f.PID != nil {
		v := *f.PID
		f.PID = &v
	}
	return f
}

func (f NetworkFilter) clone() NetworkFilter {
	if f.ProcessID != nil {
		v := *f.ProcessID
		f.ProcessID = &v
	}
	if f.Port != nil {
		v := *f.Port
		f.Port = &v
	}
	return f
}

func (f *ProcessFilter) apply(p types.FilterPatch) {
	if p.PID != nil {
		v := *p.PID
		f.PID = &v
	}
	if p.Username != nil {
		f.Username = *p.Username
	}
	if p.Name != nil {
		f.Name = *p.Name
	}
}

func (f *NetworkFilter) apply(p types.FilterPatch) {
	if p.ProcessID != nil {
		v := *p.ProcessID
		f.ProcessID = &v
	}
	if p.ProcessName != nil {
		f.ProcessName = *p.ProcessName
	}
	if p.Port != nil {
		v := *p.Port
		f.Port = &v
	}
}

func (f ProcessFilter) payload() ([]byte, error) {
	return json.Marshal(types.ProcessRequest{
		Type:     types.RequestTypeProcess,
		PID:      f.PID,
		Username: f.Username,
		Name:     f.Name,
	})
}

func (f NetworkFilter) payload() ([]byte, error) {
	return json.Marshal(types.NetworkRequest{
		Type:        types.RequestTypeNetwork,
		ProcessID:   f.ProcessID,
		ProcessName: f.ProcessName,
		Port:        f.Port,
	})
}
