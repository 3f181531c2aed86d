package scanner

import (
	"log/slog"
	"time"
)

// DefaultFrameInterval approximates one display refresh at 60 Hz.
const DefaultFrameInterval = time.Second / 60

// Config holds Scanner configuration.
type Config struct {
	Facing        FacingMode
	FrameInterval time.Duration
	Inversion     InversionAttempts

	// NewTicker builds the tick source for each session.
	NewTicker func(d time.Duration) Ticker

	// OnCode receives each decoded code, once per successful session.
	OnCode func(code string)

	// OnError receives errors that end a running session.
	OnError func(err error)

	Logger *slog.Logger
}

// Option is a functional option for configuring a Scanner.
type Option func(*Config)

// WithFacingMode selects the camera to open.
func WithFacingMode(m FacingMode) Option {
	return func(c *Config) { c.Facing = m }
}

// WithFrameInterval sets the tick period.
func WithFrameInterval(d time.Duration) Option {
	return func(c *Config) { c.FrameInterval = d }
}

// WithTicker overrides the tick source.
func WithTicker(f func(d time.Duration) Ticker) Option {
	return func(c *Config) { c.NewTicker = f }
}

// WithInversion sets the decoder inversion attempts.
func WithInversion(a InversionAttempts) Option {
	return func(c *Config) { c.Inversion = a }
}

// WithOnCode sets the code callback. It runs on the loop goroutine after
// the stream has been released, so it may call Start or Stop.
func WithOnCode(f func(code string)) Option {
	return func(c *Config) { c.OnCode = f }
}

// WithOnError sets the callback for fatal loop errors.
func WithOnError(f func(err error)) Option {
	return func(c *Config) { c.OnError = f }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns the defaults: rear camera, 60 ticks per second,
// no inversion.
func DefaultConfig() *Config {
	return &Config{
		Facing:        FacingEnvironment,
		FrameInterval: DefaultFrameInterval,
		Inversion:     DontInvert,
		NewTicker:     NewTimeTicker,
	}
}
