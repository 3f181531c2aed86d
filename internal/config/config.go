// Package config provides configuration helpers for the qrlookup commands.
// Values come from the environment, optionally seeded from a .env file;
// command-line flags override them in cmd/*.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultPort            = "3000"
	DefaultSheetRange      = "ACCESODEUSUARIOS"
	DefaultCredentialsFile = "credentials.json"
	DefaultLookupTimeout   = 10 * time.Second
	DefaultLookupURL       = "http://localhost:3000/lookup"
	DefaultCameraPreset    = "default"
)

// Server holds the lookup server configuration.
type Server struct {
	Port            string
	SpreadsheetID   string
	SheetRange      string
	CredentialsFile string
	LookupTimeout   time.Duration
	StaticDir       string
	LogLevel        string
}

// Scanner holds the camera client configuration.
type Scanner struct {
	LookupURL    string
	CameraDevice int
	CameraPreset string
	LogLevel     string
}

// LoadDotEnv loads variables from the given files (".env" when none are
// given) without overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadServer reads the server configuration from the environment.
func LoadServer() (Server, error) {
	timeout, err := durationOrDefault("LOOKUP_TIMEOUT", DefaultLookupTimeout)
	if err != nil {
		return Server{}, err
	}
	cfg := Server{
		Port:            getEnvOrDefault("PORT", DefaultPort),
		SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
		SheetRange:      getEnvOrDefault("SHEET_RANGE", DefaultSheetRange),
		CredentialsFile: getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", DefaultCredentialsFile),
		LookupTimeout:   timeout,
		StaticDir:       os.Getenv("STATIC_DIR"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
	}
	return cfg, nil
}

// Validate checks that required server settings are present.
func (c Server) Validate() error {
	if c.SpreadsheetID == "" {
		return errors.New("SPREADSHEET_ID is required")
	}
	if c.SheetRange == "" {
		return errors.New("SHEET_RANGE must not be empty")
	}
	if c.LookupTimeout <= 0 {
		return fmt.Errorf("LOOKUP_TIMEOUT must be positive, got %s", c.LookupTimeout)
	}
	return nil
}

// LoadScanner reads the scanner client configuration from the environment.
func LoadScanner() (Scanner, error) {
	device, err := intOrDefault("CAMERA_DEVICE", 0)
	if err != nil {
		return Scanner{}, err
	}
	return Scanner{
		LookupURL:    getEnvOrDefault("LOOKUP_URL", DefaultLookupURL),
		CameraDevice: device,
		CameraPreset: getEnvOrDefault("CAMERA_PRESET", DefaultCameraPreset),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
	}, nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOrDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// durationOrDefault accepts Go durations ("15s") or a bare number of seconds.
func durationOrDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
