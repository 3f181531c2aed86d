// Package scanner runs the continuous capture-and-decode loop that turns a
// camera stream into a single scanned code.
//
// A Scanner owns at most one camera stream at a time. Start acquires it and
// schedules one decode attempt per tick; the first decoded code stops the
// loop, releases the stream and is delivered exactly once.
//
//	s := scanner.New(cam, dec, scanner.WithOnCode(func(code string) {
//	    lookup(code)
//	}))
//	if err := s.Start(ctx); err != nil {
//	    // *scanner.CameraError
//	}
//	defer s.Stop()
package scanner

import (
	"context"
	"time"
)

// FacingMode selects which camera to open.
type FacingMode string

const (
	FacingEnvironment FacingMode = "environment"
	FacingUser        FacingMode = "user"
)

// InversionAttempts controls whether the decoder also tries the
// color-inverted frame.
type InversionAttempts string

const (
	DontInvert  InversionAttempts = "dontInvert"
	OnlyInvert  InversionAttempts = "onlyInvert"
	AttemptBoth InversionAttempts = "attemptBoth"
	InvertFirst InversionAttempts = "invertFirst"
)

// Frame is an RGBA pixel buffer (4 bytes per pixel, row-major).
type Frame struct {
	Pix    []byte
	Width  int
	Height int
}

// Camera acquires camera streams.
type Camera interface {
	// Open acquires a stream. It may block, e.g. on a permission prompt.
	Open(ctx context.Context, facing FacingMode) (Stream, error)
}

// Stream is an open camera stream. It is used by one goroutine at a time.
type Stream interface {
	// Ready reports whether a full frame is available.
	Ready() bool

	// Capture copies the current frame into f, reusing f.Pix when possible.
	Capture(f *Frame) error

	// Close releases the device.
	Close() error
}

// DecodeOptions tunes a decode attempt.
type DecodeOptions struct {
	InversionAttempts InversionAttempts
}

// Decoder finds a code in a pixel buffer. It never fails: ok is false when
// the frame holds no readable code.
type Decoder interface {
	Decode(pix []byte, width, height int, opts DecodeOptions) (code string, ok bool)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(pix []byte, width, height int, opts DecodeOptions) (string, bool)

// Decode calls f.
func (f DecoderFunc) Decode(pix []byte, width, height int, opts DecodeOptions) (string, bool) {
	return f(pix, width, height, opts)
}

// Ticker delivers scan ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker returns a Ticker backed by time.Ticker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// State is the scanner lifecycle state.
type State int

const (
	Idle State = iota
	Capturing
	Found
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Found:
		return "found"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
