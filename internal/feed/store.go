package feed

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"livefeed/pkg/types"
)

type feedFlags struct {
	loading   bool
	fetching  bool
	updatedAt time.Time
}

// Store holds the last accepted snapshot, flags and filter criteria of each
// feed. Writes come from the Manager's loop; reads may come from any goroutine.
type Store struct {
	mu          sync.RWMutex
	processes   []types.ProcessRecord
	connections []types.ConnectionRecord
	flags       map[Kind]*feedFlags
	psFilter    ProcessFilter
	netFilter   NetworkFilter
}

func NewStore() *Store {
	return &Store{flags: map[Kind]*feedFlags{
		KindProcess: {},
		KindNetwork: {},
	}}
}

// Processes returns a copy of the process snapshot.
func (s *Store) Processes() []types.ProcessRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.ProcessRecord(nil), s.processes...)
}

// Connections returns a copy of the network snapshot.
func (s *Store) Connections() []types.ConnectionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.ConnectionRecord(nil), s.connections...)
}

func (s *Store) Loading(k Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f := s.flags[k]; f != nil {
		return f.loading
	}
	return false
}

func (s *Store) Fetching(k Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f := s.flags[k]; f != nil {
		return f.fetching
	}
	return false
}

func (s *Store) ProcessFilter() ProcessFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.psFilter.clone()
}

func (s *Store) NetworkFilter() NetworkFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.netFilter.clone()
}

// View returns a consistent copy of one feed's state.
func (s *Store) View(k Kind) (types.FeedResponse, error) {
	if _, err := ParseKind(string(k)); err != nil {
		return types.FeedResponse{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := s.flags[k]
	out := types.FeedResponse{Feed: string(k), Loading: f.loading, Fetching: f.fetching}
	if !f.updatedAt.IsZero() {
		out.UpdatedAt = f.updatedAt.UnixMilli()
	}
	switch k {
	case KindProcess:
		out.Processes = append([]types.ProcessRecord(nil), s.processes...)
		out.Filter = s.psFilter.clone()
	case KindNetwork:
		out.Connections = append([]types.ConnectionRecord(nil), s.connections...)
		out.Filter = s.netFilter.clone()
	}
	return out, nil
}

// UpdateFilter merges the non-nil fields of p relevant to k.
func (s *Store) UpdateFilter(k Kind, p types.FilterPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch k {
	case KindProcess:
		s.psFilter.apply(p)
	case KindNetwork:
		s.netFilter.apply(p)
	default:
		return unknownFeedError{name: string(k)}
	}
	return nil
}

// ResetFilter restores k's criteria to match everything.
func (s *Store) ResetFilter(k Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch k {
	case KindProcess:
		s.psFilter = ProcessFilter{}
	case KindNetwork:
		s.netFilter = NetworkFilter{}
	default:
		return unknownFeedError{name: string(k)}
	}
	return nil
}

// requestPayload serializes k's current criteria as the outbound message.
func (s *Store) requestPayload(k Kind) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch k {
	case KindProcess:
		return s.psFilter.payload()
	case KindNetwork:
		return s.netFilter.payload()
	}
	return nil, unknownFeedError{name: string(k)}
}

// beginFetch marks k as awaiting its reply. Loading is only raised when there
// is nothing to show yet, so later polls keep the previous snapshot visible.
func (s *Store) beginFetch(k Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.flags[k]
	f.fetching = true
	switch k {
	case KindProcess:
		f.loading = len(s.processes) == 0
	case KindNetwork:
		f.loading = len(s.connections) == 0
	}
}

func (s *Store) endFetch(k Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.flags[k]; f != nil {
		f.fetching = false
	}
}

func (s *Store) clearFetching() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.flags {
		f.fetching = false
	}
}

func (s *Store) clearLoading(k Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.flags[k]; f != nil {
		f.loading = false
	}
}

// decode parses payload as k's record sequence. Empty and null payloads
// decode to an empty sequence.
func decode(k Kind, payload []byte) (any, int, error) {
	payload = bytes.TrimSpace(payload)
	switch k {
	case KindProcess:
		var recs []types.ProcessRecord
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &recs); err != nil {
				return nil, 0, err
			}
		}
		if recs == nil {
			recs = []types.ProcessRecord{}
		}
		return recs, len(recs), nil
	case KindNetwork:
		var recs []types.ConnectionRecord
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &recs); err != nil {
				return nil, 0, err
			}
		}
		if recs == nil {
			recs = []types.ConnectionRecord{}
		}
		return recs, len(recs), nil
	}
	return nil, 0, unknownFeedError{name: string(k)}
}

// apply replaces k's snapshot wholesale and clears its loading flag.
func (s *Store) apply(k Kind, recs any, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch k {
	case KindProcess:
		s.processes = recs.([]types.ProcessRecord)
	case KindNetwork:
		s.connections = recs.([]types.ConnectionRecord)
	default:
		return
	}
	f := s.flags[k]
	f.loading = false
	f.updatedAt = now
}
