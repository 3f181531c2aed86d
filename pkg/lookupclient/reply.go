package lookupclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/teslashibe/qrlookup/pkg/lookup"
)

// Messages the server uses to tell its 400 and 404 replies apart.
const (
	msgMissingCode = "Falta el código QR"
	msgEmptyTable  = "La hoja está vacía"
)

// reply is the union of all lookup response bodies.
type reply struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	Detail    string          `json:"detail"`
	Code      string          `json:"code"`
	Headers   []string        `json:"headers"`
	Status    int             `json:"status"`
	RequestID string          `json:"request_id"`
}

// result maps a reply and its status back to the lookup package's outcomes.
func (r *reply) result(status int, code string) (*lookup.Result, error) {
	switch {
	case status == http.StatusOK && r.Success:
		var rec lookup.Record
		if len(r.Data) > 0 {
			if err := json.Unmarshal(r.Data, &rec); err != nil {
				return nil, fmt.Errorf("lookupclient: decode record: %w", err)
			}
		}
		return &lookup.Result{Found: true, Code: code, Record: rec}, nil

	case status == http.StatusNotFound && r.Error == msgEmptyTable:
		return nil, lookup.ErrEmptyTable

	case status == http.StatusNotFound:
		return &lookup.Result{Found: false, Code: code}, nil

	case status == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", lookup.ErrEmptyCode, r.Error)

	default:
		msg := r.Error
		if msg == "" {
			msg = http.StatusText(status)
		}
		return nil, &ServerError{Status: status, Message: msg, Detail: r.Detail, Headers: r.Headers}
	}
}
