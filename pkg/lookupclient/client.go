// Package lookupclient talks to the lookup server on behalf of a scanner.
//
// Client uses POST /lookup; Station keeps one websocket open to /ws/station.
// Both return the lookup package's Result and errors, so callers handle a
// remote lookup exactly like a local one.
package lookupclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/teslashibe/qrlookup/internal/httpc"
	"github.com/teslashibe/qrlookup/internal/log"
	"github.com/teslashibe/qrlookup/pkg/lookup"
)

// maxReplySize bounds the reply body we read.
const maxReplySize = 1 << 20

// Client performs lookups over HTTP.
type Client struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. Defaults to httpc.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) { cl.logger = logger }
}

// New creates a client posting to url, e.g. http://localhost:3000/lookup.
func New(url string, opts ...Option) *Client {
	c := &Client{url: url, http: httpc.Client}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = log.Or(c.logger)
	return c
}

// URL returns the lookup endpoint.
func (c *Client) URL() string {
	return c.url
}

// Lookup sends code to the server.
func (c *Client) Lookup(ctx context.Context, code string) (*lookup.Result, error) {
	body, err := json.Marshal(map[string]string{"code": code})
	if err != nil {
		return nil, err
	}

	resp, err := httpc.PostJSON(ctx, c.http, c.url, body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read reply: %v", ErrUnreachable, err)
	}

	var r reply
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &ServerError{Status: resp.StatusCode, Message: "invalid reply", Detail: err.Error()}
	}

	c.logger.Debug("lookup reply", "code", code, "status", resp.StatusCode,
		"request_id", resp.Header.Get("X-Request-ID"))
	return r.result(resp.StatusCode, code)
}
