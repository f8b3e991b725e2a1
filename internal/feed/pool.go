package feed

import (
	"sort"
	"sync"
	"time"

	"livefeed/pkg/types"
)

// Pool hands out one Manager per node, all built from the same config.
type Pool struct {
	mu       sync.Mutex
	cfg      ManagerConfig
	managers map[string]*Manager
	closed   bool
}

func NewPool(cfg ManagerConfig) *Pool {
	return &Pool{cfg: cfg, managers: make(map[string]*Manager)}
}

// Get returns the node's Manager, creating it on first use.
func (p *Pool) Get(node string) (*Manager, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, closedError{what: "pool"}
	}
	if m, ok := p.managers[node]; ok {
		return m, nil
	}
	cfg := p.cfg
	cfg.Logger = p.cfg.Logger.With().Str("node", node).Logger()
	m := NewWithConfig(cfg)
	p.managers[node] = m
	return m, nil
}

// existing returns the node's Manager without creating one.
func (p *Pool) existing(node string) (*Manager, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, closedError{what: "pool"}
	}
	m, ok := p.managers[node]
	if !ok {
		return nil, unknownNodeError{node: node}
	}
	return m, nil
}

// Lookup returns the node's Manager if one exists.
func (p *Pool) Lookup(node string) (*Manager, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.managers[node]
	return m, ok
}

// Nodes lists nodes with a Manager, sorted.
func (p *Pool) Nodes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.managers))
	for n := range p.managers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Close shuts every Manager down. Further Get calls fail.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	ms := make([]*Manager, 0, len(p.managers))
	for _, m := range p.managers {
		ms = append(ms, m)
	}
	p.mu.Unlock()
	for _, m := range ms {
		m.Close()
	}
}

// Ready reports whether the pool still accepts nodes.
func (p *Pool) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

// The methods below address a node's Manager by name. Connect, StartPolling
// and UpdateFilter create it on demand; the rest fail for unknown nodes.

func (p *Pool) Connect(node string) error {
	m, err := p.Get(node)
	if err != nil {
		return err
	}
	m.Connect(node)
	return nil
}

func (p *Pool) Disconnect(node string) error {
	m, err := p.existing(node)
	if err != nil {
		return err
	}
	m.Disconnect()
	return nil
}

func (p *Pool) StartPolling(node string, k Kind, interval, initialDelay time.Duration) error {
	m, err := p.Get(node)
	if err != nil {
		return err
	}
	return m.StartPolling(k, interval, initialDelay)
}

func (p *Pool) StopPolling(node string) error {
	m, err := p.existing(node)
	if err != nil {
		return err
	}
	m.StopPolling()
	return nil
}

func (p *Pool) View(node string, k Kind) (types.FeedResponse, error) {
	m, err := p.existing(node)
	if err != nil {
		return types.FeedResponse{}, err
	}
	return m.View(k)
}

func (p *Pool) UpdateFilter(node string, k Kind, patch types.FilterPatch) error {
	m, err := p.Get(node)
	if err != nil {
		return err
	}
	return m.UpdateFilter(k, patch)
}

func (p *Pool) ResetFilter(node string, k Kind) error {
	m, err := p.existing(node)
	if err != nil {
		return err
	}
	return m.ResetFilter(k)
}

func (p *Pool) Status(node string) (types.StatusResponse, error) {
	m, err := p.existing(node)
	if err != nil {
		return types.StatusResponse{}, err
	}
	st := m.Status()
	if st.Node == "" {
		st.Node = node
	}
	return st, nil
}

func (p *Pool) Subscribe(node string, buffer int) (<-chan Event, func(), error) {
	m, err := p.existing(node)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := m.Subscribe(buffer)
	return ch, cancel, nil
}
