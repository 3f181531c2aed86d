package sheets

import (
	"log/slog"
	"net/http"
)

// ReadOnlyScope is the only scope the client requests.
const ReadOnlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

// Config holds Sheets client configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	SpreadsheetID string

	// Service account credentials, as a file path or raw JSON.
	CredentialsFile string
	CredentialsJSON []byte

	// Endpoint overrides the API base URL (tests, proxies).
	Endpoint string

	// HTTPClient is the base client. With credentials it only supplies the
	// transport under the oauth2 layer.
	HTTPClient *http.Client

	// NoAuth skips credentials entirely.
	NoAuth bool

	Logger *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithSpreadsheetID sets the spreadsheet to read.
func WithSpreadsheetID(id string) Option {
	return func(c *Config) { c.SpreadsheetID = id }
}

// WithCredentialsFile reads service account credentials from path.
func WithCredentialsFile(path string) Option {
	return func(c *Config) { c.CredentialsFile = path }
}

// WithCredentialsJSON uses the given service account JSON.
func WithCredentialsJSON(data []byte) Option {
	return func(c *Config) { c.CredentialsJSON = data }
}

// WithEndpoint overrides the API endpoint.
func WithEndpoint(url string) Option {
	return func(c *Config) { c.Endpoint = url }
}

// WithHTTPClient sets the base HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) { c.HTTPClient = client }
}

// WithoutAuthentication disables credentials.
func WithoutAuthentication() Option {
	return func(c *Config) { c.NoAuth = true }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}
