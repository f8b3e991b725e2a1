package feed

import (
	"time"

	"github.com/rs/zerolog"

	"livefeed/internal/channel"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultGraceWindow       = 500 * time.Millisecond
	defaultReadyPollInterval = 100 * time.Millisecond
	defaultReadyTimeout      = 5 * time.Second
	defaultDialTimeout       = 10 * time.Second

	// DefaultPollInterval is used by StartPolling when interval is not positive.
	DefaultPollInterval = 3 * time.Second
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Dialer opens the node channel. Required.
	Dialer channel.Dialer
	// GraceWindow delays teardown after the last reference is released.
	GraceWindow time.Duration
	// ReadyPollInterval and ReadyTimeout bound StartPolling's wait for an open channel.
	ReadyPollInterval time.Duration
	ReadyTimeout      time.Duration
	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration
	Logger      zerolog.Logger
	Publisher   EventPublisher
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.GraceWindow <= 0 {
		c.GraceWindow = defaultGraceWindow
	}
	if c.ReadyPollInterval <= 0 {
		c.ReadyPollInterval = defaultReadyPollInterval
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = defaultReadyTimeout
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	return c
}

// NewWithConfig constructs a Manager and starts its loop.
func NewWithConfig(cfg ManagerConfig) *Manager {
	cfg = cfg.withDefaults()
	m := &Manager{
		cfg:      cfg,
		log:      cfg.Logger.With().Str("component", "feed").Logger(),
		store:    NewStore(),
		bus:      NewBroadcaster(),
		ops:      make(chan func()),
		quit:     make(chan struct{}),
		loopDone: make(chan struct{}),
		state:    StateIdle,
	}
	go m.loop()
	return m
}
