package transfork

import (
	"log/slog"
	"slices"
	"time"
)

// Config contains configuration options for transfork connections.
type Config struct {
	// Versions are the protocol versions offered by a client or accepted by a
	// server, in order of preference. If empty, DefaultVersions is used.
	Versions []Version

	// SetupTimeout is the maximum time to wait for the session handshake.
	// If zero, a default timeout of 5 seconds is used.
	SetupTimeout time.Duration

	// AnnounceQueueSize bounds the queue returned by Connection.Announced.
	// If zero, 32 is used.
	AnnounceQueueSize int

	// Logger receives connection logs. If nil, logs are discarded.
	Logger *slog.Logger

	// Metrics records connection statistics. If nil, nothing is recorded.
	Metrics *Metrics
}

func (c *Config) versions() []Version {
	if c != nil && len(c.Versions) > 0 {
		return c.Versions
	}
	return DefaultVersions
}

func (c *Config) setupTimeout() time.Duration {
	if c != nil && c.SetupTimeout > 0 {
		return c.SetupTimeout
	}
	return 5 * time.Second
}

func (c *Config) announceQueueSize() int {
	if c != nil && c.AnnounceQueueSize > 0 {
		return c.AnnounceQueueSize
	}
	return 32
}

func (c *Config) logger() *slog.Logger {
	if c != nil && c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (c *Config) metrics() *Metrics {
	if c != nil {
		return c.Metrics
	}
	return nil
}

// Clone creates a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	return &Config{
		Versions:          slices.Clone(c.Versions),
		SetupTimeout:      c.SetupTimeout,
		AnnounceQueueSize: c.AnnounceQueueSize,
		Logger:            c.Logger,
		Metrics:           c.Metrics,
	}
}
