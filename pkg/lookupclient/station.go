package lookupclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/qrlookup/internal/log"
	"github.com/teslashibe/qrlookup/pkg/lookup"
)

const stationWriteWait = 10 * time.Second

// Station performs lookups over a persistent websocket to /ws/station.
// Lookups are serialized; each request gets exactly one reply. A failed
// read leaves the connection unusable, so Dial again after an error.
type Station struct {
	url    string
	conn   *websocket.Conn
	logger *slog.Logger

	mu sync.Mutex
}

// Dial connects to a station endpoint, e.g. ws://localhost:3000/ws/station.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Station, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, &ServerError{Status: resp.StatusCode, Message: "websocket upgrade refused"}
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return &Station{url: url, conn: conn, logger: log.Or(logger)}, nil
}

// Lookup sends code and waits for the reply. The deadline of ctx, if any,
// bounds the round trip.
func (s *Station) Lookup(ctx context.Context, code string) (*lookup.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.conn.SetWriteDeadline(time.Now().Add(stationWriteWait))
	if err := s.conn.WriteJSON(map[string]string{"code": code}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	deadline, _ := ctx.Deadline()
	s.conn.SetReadDeadline(deadline)

	// Unblock the read when ctx is cancelled without a deadline.
	stop := context.AfterFunc(ctx, func() {
		s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := s.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	var r reply
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &ServerError{Status: r.Status, Message: "invalid reply", Detail: err.Error()}
	}
	s.logger.Debug("station reply", "code", code, "status", r.Status, "request_id", r.RequestID)
	return r.result(r.Status, code)
}

// Close closes the connection.
func (s *Station) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}
