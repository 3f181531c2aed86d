package web

import (
	"encoding/json"
	"time"

	contribws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	stationReadTimeout  = 5 * time.Minute
	stationWriteTimeout = 10 * time.Second
)

// registerStation mounts /ws/station. A station sends {"code": "..."} text
// frames and receives one JSON reply per frame: the POST /lookup body plus
// "status" and "request_id".
func (s *Server) registerStation(app *fiber.App) {
	app.Get("/ws/station", contribws.New(s.handleStation))
}

func (s *Server) handleStation(c *contribws.Conn) {
	session := uuid.NewString()
	logger := s.logger.With("station", session, "remote", c.RemoteAddr().String())
	logger.Info("station connected")
	defer func() {
		c.Close()
		logger.Info("station disconnected")
	}()

	for {
		c.SetReadDeadline(time.Now().Add(stationReadTimeout))
		mt, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		if mt != contribws.TextMessage {
			continue
		}

		id := uuid.NewString()
		var req LookupRequest
		var status int
		var body map[string]interface{}
		if err := json.Unmarshal(data, &req); err != nil {
			logger.Warn("invalid station message", "request_id", id, "error", err)
			status, body = fiber.StatusBadRequest, fiber.Map{"error": msgMissingCode}
		} else {
			status, body = s.lookup(s.ctx, id, "station", req.Value())
		}
		body["status"] = status
		body["request_id"] = id

		c.SetWriteDeadline(time.Now().Add(stationWriteTimeout))
		if err := c.WriteJSON(body); err != nil {
			logger.Warn("station write failed", "error", err)
			return
		}
	}
}
