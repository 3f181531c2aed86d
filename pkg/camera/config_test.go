package camera

import (
	"testing"

	"github.com/teslashibe/qrlookup/pkg/scanner"
)

func TestPresetsValidate(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			if cfg == nil {
				t.Fatalf("preset %q missing", name)
			}
			if errs := cfg.Validate(); len(errs) > 0 {
				t.Errorf("preset %q invalid: %v", name, errs)
			}
		})
	}
	if GetPreset("8k") != nil {
		t.Error("unknown preset should be nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errs   int
	}{
		{"default", func(*Config) {}, 0},
		{"negative device", func(c *Config) { c.Device = -1 }, 1},
		{"tiny frame", func(c *Config) { c.Width, c.Height = 10, 10 }, 2},
		{"zero fps", func(c *Config) { c.Framerate = 0 }, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if got := len(cfg.Validate()); got != tc.errs {
				t.Errorf("errors = %d, want %d (%v)", got, tc.errs, cfg.Validate())
			}
		})
	}
}

func TestDeviceForFacing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = 1
	if got := cfg.device(scanner.FacingUser); got != 1 {
		t.Errorf("user without front device = %d, want 1", got)
	}
	cfg.FrontDevice = 2
	if got := cfg.device(scanner.FacingUser); got != 2 {
		t.Errorf("user = %d, want 2", got)
	}
	if got := cfg.device(scanner.FacingEnvironment); got != 1 {
		t.Errorf("environment = %d, want 1", got)
	}
}

func TestSetConfigRejectsInvalid(t *testing.T) {
	cam, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bad := DefaultConfig()
	bad.Framerate = 0
	if err := cam.SetConfig(bad); err == nil {
		t.Error("SetConfig accepted invalid config")
	}
	if cam.Config().Framerate != DefaultConfig().Framerate {
		t.Error("invalid config should not be applied")
	}
}
