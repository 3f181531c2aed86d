package lookup

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common error conditions.
var (
	// ErrEmptyCode is returned when the requested code is empty.
	ErrEmptyCode = errors.New("lookup: code required")

	// ErrEmptyTable is returned when the snapshot has no data rows.
	ErrEmptyTable = errors.New("lookup: empty table")
)

// ColumnError is returned when no header resolves to the code column.
type ColumnError struct {
	// Headers is the raw header row, for diagnostics.
	Headers []string
}

// Error implements the error interface.
func (e *ColumnError) Error() string {
	return fmt.Sprintf("lookup: no %s column in headers [%s]",
		strings.Join(CodeColumnAliases, "/"), strings.Join(e.Headers, ", "))
}

// Kind classifies a data source failure.
type Kind string

const (
	// KindAuth means the source rejected or could not obtain credentials.
	KindAuth Kind = "auth"

	// KindConnectivity means the source was unreachable, failed, or timed out.
	KindConnectivity Kind = "connectivity"
)

// SourceError wraps a data source failure with its kind.
type SourceError struct {
	Kind Kind

	// Source names the backend, e.g. "sheets".
	Source string

	Err error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("lookup [%s]: %s error: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("lookup: %s error: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// AuthError wraps err as an authentication failure.
func AuthError(source string, err error) error {
	return &SourceError{Kind: KindAuth, Source: source, Err: err}
}

// ConnectivityError wraps err as a connectivity failure.
func ConnectivityError(source string, err error) error {
	return &SourceError{Kind: KindConnectivity, Source: source, Err: err}
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var se *SourceError
	return errors.As(err, &se) && se.Kind == KindAuth
}

// IsConnectivity reports whether err is a connectivity failure.
func IsConnectivity(err error) bool {
	var se *SourceError
	return errors.As(err, &se) && se.Kind == KindConnectivity
}
