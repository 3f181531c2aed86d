package lookup

import (
	"log/slog"
	"time"
)

// Defaults for a Service.
const (
	DefaultRange   = "ACCESODEUSUARIOS"
	DefaultTimeout = 10 * time.Second
)

// Config holds Service configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Range is the named range fetched from the source.
	Range string

	// Timeout bounds the single source fetch of a lookup.
	Timeout time.Duration

	Logger *slog.Logger
}

// Option is a functional option for configuring a Service.
type Option func(*Config)

// WithRange sets the range fetched for each lookup.
func WithRange(name string) Option {
	return func(c *Config) { c.Range = name }
}

// WithTimeout bounds each source fetch. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Range:   DefaultRange,
		Timeout: DefaultTimeout,
	}
}
