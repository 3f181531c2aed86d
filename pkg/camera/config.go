// Package camera opens local capture devices for the scanner using OpenCV.
package camera

import "fmt"

// Config holds capture device settings.
type Config struct {
	// Device is the OpenCV device index used for the rear (environment) camera.
	Device int `json:"device"`

	// FrontDevice is the index used for the user-facing camera.
	// Negative means the environment device serves both.
	FrontDevice int `json:"front_device"`

	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Target FPS
}

// Capture limits.
const (
	MinWidth     = 160
	MinHeight    = 120
	MaxWidth     = 4096
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns 720p at 30 FPS on device 0.
func DefaultConfig() Config {
	return Config{
		Device:      0,
		FrontDevice: -1,
		Width:       1280,
		Height:      720,
		Framerate:   30,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must be >= 0")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}

	return errors
}
