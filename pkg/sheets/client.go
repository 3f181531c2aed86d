// Package sheets reads header+rows snapshots from Google Sheets.
//
//	src, err := sheets.New(ctx,
//	    sheets.WithSpreadsheetID(id),
//	    sheets.WithCredentialsFile("credentials.json"),
//	)
//	snap, err := src.Snapshot(ctx, "ACCESODEUSUARIOS")
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/teslashibe/qrlookup/internal/httpc"
	"github.com/teslashibe/qrlookup/internal/log"
	"github.com/teslashibe/qrlookup/pkg/lookup"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const sourceName = "sheets"

// ErrNoSpreadsheet is returned when no spreadsheet ID is configured.
var ErrNoSpreadsheet = errors.New("sheets: spreadsheet ID required")

// Client implements lookup.Source over the Sheets v4 values API.
type Client struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *slog.Logger
}

// New creates a client. Credentials are parsed here; tokens are fetched
// lazily on the first request.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.SpreadsheetID == "" {
		return nil, ErrNoSpreadsheet
	}

	base := cfg.HTTPClient
	if base == nil {
		base = httpc.NewClient(0)
	}

	var clientOpts []option.ClientOption
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}

	if cfg.NoAuth {
		clientOpts = append(clientOpts, option.WithHTTPClient(base))
	} else {
		data := cfg.CredentialsJSON
		if data == nil {
			if cfg.CredentialsFile == "" {
				return nil, lookup.AuthError(sourceName, errors.New("no credentials configured"))
			}
			var err error
			data, err = os.ReadFile(cfg.CredentialsFile)
			if err != nil {
				return nil, lookup.AuthError(sourceName, fmt.Errorf("read credentials: %w", err))
			}
		}
		// Token requests go through the base client too and outlive ctx.
		tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		creds, err := google.CredentialsFromJSON(tokenCtx, data, ReadOnlyScope)
		if err != nil {
			return nil, lookup.AuthError(sourceName, fmt.Errorf("parse credentials: %w", err))
		}
		authed := oauth2.NewClient(tokenCtx, creds.TokenSource)
		authed.Timeout = base.Timeout
		clientOpts = append(clientOpts, option.WithHTTPClient(authed))
	}

	svc, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	return &Client{
		service:       svc,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        log.Or(cfg.Logger).With("component", "sheets"),
	}, nil
}

// Snapshot fetches rangeName once. The first row becomes the header.
func (c *Client) Snapshot(ctx context.Context, rangeName string) (*lookup.Snapshot, error) {
	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, rangeName).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		c.logger.Warn("values get failed", "range", rangeName, "error", err)
		return nil, classify(err)
	}

	values := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		values[i] = stringRow(row)
	}
	snap := lookup.NewSnapshot(values)
	c.logger.Debug("snapshot fetched", "range", rangeName, "headers", len(snap.Headers), "rows", len(snap.Rows))
	return snap, nil
}

func stringRow(row []interface{}) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		switch v := cell.(type) {
		case string:
			out[i] = v
		case nil:
			out[i] = ""
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

// classify maps API failures onto lookup source error kinds.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return lookup.AuthError(sourceName, err)
		}
		return lookup.ConnectivityError(sourceName, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return lookup.AuthError(sourceName, err)
	}
	return lookup.ConnectivityError(sourceName, err)
}

// Verify Client implements lookup.Source at compile time.
var _ lookup.Source = (*Client)(nil)
