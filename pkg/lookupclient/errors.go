package lookupclient

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnreachable is returned when the lookup server cannot be reached.
var ErrUnreachable = errors.New("lookupclient: server unreachable")

// ServerError is a non-success reply the server produced for a failed lookup.
type ServerError struct {
	Status  int
	Message string
	Detail  string

	// Headers is set when the sheet has no code column.
	Headers []string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "lookupclient: server error %d: %s", e.Status, e.Message)
	if e.Detail != "" {
		fmt.Fprintf(&b, " (%s)", e.Detail)
	}
	if len(e.Headers) > 0 {
		fmt.Fprintf(&b, " headers=[%s]", strings.Join(e.Headers, ", "))
	}
	return b.String()
}
