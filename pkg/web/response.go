package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/teslashibe/qrlookup/pkg/lookup"
)

// Response messages. Clients display them as-is.
const (
	msgMissingCode  = "Falta el código QR"
	msgNotFound     = "Código no encontrado"
	msgEmptyTable   = "La hoja está vacía"
	msgNoCodeColumn = "No se encontró la columna CODIGO"
	msgAuth         = "Error de autenticación con Google Sheets"
	msgSheets       = "Error al consultar Google Sheets"
	msgInternal     = "Error interno del servidor"
)

// respond maps a lookup outcome to a status code and JSON body.
func respond(code string, res *lookup.Result, err error) (int, fiber.Map) {
	if err == nil {
		if res != nil && res.Found {
			return fiber.StatusOK, fiber.Map{"success": true, "data": res.Record}
		}
		return fiber.StatusNotFound, fiber.Map{"success": false, "error": msgNotFound, "code": code}
	}

	var colErr *lookup.ColumnError
	switch {
	case errors.Is(err, lookup.ErrEmptyCode):
		return fiber.StatusBadRequest, fiber.Map{"error": msgMissingCode}
	case errors.Is(err, lookup.ErrEmptyTable):
		return fiber.StatusNotFound, fiber.Map{"success": false, "error": msgEmptyTable}
	case errors.As(err, &colErr):
		return fiber.StatusInternalServerError, fiber.Map{
			"error":   msgNoCodeColumn,
			"detail":  err.Error(),
			"headers": colErr.Headers,
		}
	case lookup.IsAuth(err):
		return fiber.StatusInternalServerError, fiber.Map{"error": msgAuth, "detail": err.Error()}
	default:
		return fiber.StatusInternalServerError, fiber.Map{"error": msgSheets, "detail": err.Error()}
	}
}

// handleError writes errors that escape a handler, including recovered
// panics and fiber's routing errors, as {"error","detail"} JSON.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := msgInternal
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		msg = utils.StatusMessage(fe.Code)
	}

	logger := s.logger.With("request_id", requestID(c), "method", c.Method(), "path", c.Path(), "status", status)
	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	} else {
		logger.Warn("request rejected", "error", err)
	}

	return c.Status(status).JSON(fiber.Map{"error": msg, "detail": err.Error()})
}
