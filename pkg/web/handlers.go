package web

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/qrlookup/pkg/lookup"
)

// LookupRequest is the request body for a lookup. Older clients send codigo.
type LookupRequest struct {
	Code   string `json:"code"`
	Codigo string `json:"codigo,omitempty"`
}

// Value returns the requested code, preferring Code.
func (r LookupRequest) Value() string {
	if r.Code != "" {
		return r.Code
	}
	return r.Codigo
}

// Event is published on /ws/lookups after every lookup.
type Event struct {
	Time      time.Time      `json:"time"`
	RequestID string         `json:"request_id"`
	Origin    string         `json:"origin"` // http, station
	Code      string         `json:"code"`
	Status    int            `json:"status"`
	Found     bool           `json:"found"`
	Record    *lookup.Record `json:"record,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// handleHealth reports liveness
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleLookup serves POST /lookup and POST /buscar-qr
func (s *Server) handleLookup(c *fiber.Ctx) error {
	id := requestID(c)

	var req LookupRequest
	if err := c.BodyParser(&req); err != nil {
		s.logger.Warn("invalid lookup body", "request_id", id, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgMissingCode})
	}

	status, body := s.lookup(c.UserContext(), id, "http", req.Value())
	return c.Status(status).JSON(body)
}

// lookup runs one lookup, logs failures and publishes the event.
func (s *Server) lookup(ctx context.Context, id, origin, code string) (int, map[string]interface{}) {
	start := time.Now()
	res, err := s.lookuper.Lookup(ctx, code)
	status, body := respond(code, res, err)

	logger := s.logger.With("request_id", id, "origin", origin, "code", code, "status", status,
		"duration", time.Since(start))
	switch {
	case err == nil:
		logger.Info("lookup", "found", res != nil && res.Found)
	case errors.Is(err, lookup.ErrEmptyCode), errors.Is(err, lookup.ErrEmptyTable):
		logger.Warn("lookup rejected", "error", err)
	default:
		logger.Error("lookup failed", "error", err)
	}

	ev := Event{
		Time:      start,
		RequestID: id,
		Origin:    origin,
		Code:      code,
		Status:    status,
	}
	if res != nil && res.Found {
		ev.Found = true
		rec := res.Record
		ev.Record = &rec
	}
	if err != nil {
		ev.Error = err.Error()
	}
	if err := s.events.Publish(ev); err != nil {
		s.logger.Warn("publish lookup event", "error", err)
	}

	return status, body
}

// handleLookupsWS streams lookup events to a dashboard
func (s *Server) handleLookupsWS(c *websocket.Conn) {
	s.events.Serve(c)
}
