package scanner

import (
	"errors"
	"fmt"
)

// ErrNoCamera is returned by Open when no device matches the request.
var ErrNoCamera = errors.New("scanner: camera unavailable")

// ErrStopped is returned by Scan when the scanner is stopped before a code
// is found.
var ErrStopped = errors.New("scanner: stopped")

// CameraError is returned when the camera cannot be acquired.
type CameraError struct {
	Facing FacingMode
	Err    error
}

// Error implements the error interface.
func (e *CameraError) Error() string {
	return fmt.Sprintf("scanner: open %s camera: %v", e.Facing, e.Err)
}

// Unwrap returns the underlying error.
func (e *CameraError) Unwrap() error {
	return e.Err
}

// CaptureError is reported when a frame cannot be read from an open stream.
// It ends the scan.
type CaptureError struct {
	Err error
}

// Error implements the error interface.
func (e *CaptureError) Error() string {
	return fmt.Sprintf("scanner: capture frame: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *CaptureError) Unwrap() error {
	return e.Err
}
