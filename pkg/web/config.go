package web

import (
	"log/slog"
	"time"
)

// Defaults.
const (
	DefaultPort    = "3000"
	DefaultAppName = "qrlookup"
)

// Config holds server settings.
type Config struct {
	Port         string
	AppName      string
	StaticDir    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// RequestLogging enables fiber's access log middleware.
	RequestLogging bool

	Logger *slog.Logger
}

// Option configures the server.
type Option func(*Config)

// WithPort sets the listen port.
func WithPort(port string) Option {
	return func(c *Config) { c.Port = port }
}

// WithStaticDir serves files from dir at "/".
func WithStaticDir(dir string) Option {
	return func(c *Config) { c.StaticDir = dir }
}

// WithTimeouts sets the HTTP read and write timeouts. Zero means none.
func WithTimeouts(read, write time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = read
		c.WriteTimeout = write
	}
}

// WithRequestLogging toggles per-request access logs.
func WithRequestLogging(enabled bool) Option {
	return func(c *Config) { c.RequestLogging = enabled }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:    DefaultPort,
		AppName: DefaultAppName,
	}
}
