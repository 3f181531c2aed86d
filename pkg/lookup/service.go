package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teslashibe/qrlookup/internal/log"
)

// Service resolves codes against a fresh snapshot per request.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	source Source
	cfg    Config
	logger *slog.Logger
}

// NewService creates a lookup service over source.
func NewService(source Source, opts ...Option) *Service {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{
		source: source,
		cfg:    *cfg,
		logger: log.Or(cfg.Logger),
	}
}

// Range returns the range the service reads.
func (s *Service) Range() string {
	return s.cfg.Range
}

// Lookup fetches the snapshot once and matches code against it.
func (s *Service) Lookup(ctx context.Context, code string) (*Result, error) {
	if code == "" {
		return nil, ErrEmptyCode
	}

	snap, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	res, err := Match(snap, code)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("lookup matched", "code", code, "found", res.Found, "rows", len(snap.Rows))
	return res, nil
}

func (s *Service) fetch(ctx context.Context) (*Snapshot, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	snap, err := s.source.Snapshot(ctx, s.cfg.Range)
	if err != nil {
		var se *SourceError
		if errors.As(err, &se) {
			return nil, err
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ConnectivityError("", fmt.Errorf("fetch %q timed out after %s: %w", s.cfg.Range, s.cfg.Timeout, err))
		}
		return nil, ConnectivityError("", err)
	}
	if snap == nil {
		snap = &Snapshot{}
	}
	return snap, nil
}

// Match searches snap for the first row whose code cell equals code.
// Cells are compared raw; only headers are normalized.
func Match(snap *Snapshot, code string) (*Result, error) {
	if code == "" {
		return nil, ErrEmptyCode
	}
	if snap.Empty() {
		return nil, ErrEmptyTable
	}

	col, err := ResolveCodeColumn(snap.Headers)
	if err != nil {
		return nil, err
	}

	for _, row := range snap.Rows {
		if col < len(row) && row[col] == code {
			return &Result{
				Found:  true,
				Code:   code,
				Record: NewRecord(snap.Headers, row),
			}, nil
		}
	}
	return &Result{Found: false, Code: code}, nil
}
