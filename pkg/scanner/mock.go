package scanner

import (
	"context"
	"sync"
	"time"
)

// MockCamera implements Camera for testing. It tracks how many streams it
// has handed out and how many are still open.
type MockCamera struct {
	// OpenFunc overrides stream creation. The default returns a MockStream
	// that is always ready.
	OpenFunc func(ctx context.Context, facing FacingMode) (Stream, error)

	mu      sync.Mutex
	opens   int
	open    int
	maxOpen int
	streams []*MockStream
}

// NewMockCamera returns a camera whose streams are always ready.
func NewMockCamera() *MockCamera {
	return &MockCamera{}
}

// Open implements Camera.
func (c *MockCamera) Open(ctx context.Context, facing FacingMode) (Stream, error) {
	var (
		st  Stream
		err error
	)
	if c.OpenFunc != nil {
		st, err = c.OpenFunc(ctx, facing)
	} else {
		st = NewMockStream()
	}
	if st == nil {
		return nil, err
	}

	ms, ok := st.(*MockStream)
	if !ok {
		return st, err
	}
	c.mu.Lock()
	c.opens++
	c.open++
	if c.open > c.maxOpen {
		c.maxOpen = c.open
	}
	c.streams = append(c.streams, ms)
	c.mu.Unlock()
	ms.onClose = c.closed
	return ms, err
}

func (c *MockCamera) closed() {
	c.mu.Lock()
	c.open--
	c.mu.Unlock()
}

// Opens returns the number of streams acquired.
func (c *MockCamera) Opens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}

// OpenStreams returns the number of streams not yet closed.
func (c *MockCamera) OpenStreams() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// MaxOpen returns the highest number of simultaneously open streams.
func (c *MockCamera) MaxOpen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxOpen
}

// Streams returns the streams handed out so far.
func (c *MockCamera) Streams() []*MockStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*MockStream, len(c.streams))
	copy(out, c.streams)
	return out
}

// MockStream implements Stream for testing.
type MockStream struct {
	// ReadyFunc reports frame availability. Nil means always ready.
	ReadyFunc func() bool

	// CaptureFunc fills the frame. Nil produces a 2x2 black frame.
	CaptureFunc func(f *Frame) error

	// CloseFunc runs before the stream counts as closed.
	CloseFunc func() error

	mu      sync.Mutex
	closes  int
	onClose func()
}

// NewMockStream returns a stream that is always ready.
func NewMockStream() *MockStream {
	return &MockStream{}
}

// Ready implements Stream.
func (s *MockStream) Ready() bool {
	if s.ReadyFunc != nil {
		return s.ReadyFunc()
	}
	return true
}

// Capture implements Stream.
func (s *MockStream) Capture(f *Frame) error {
	if s.CaptureFunc != nil {
		return s.CaptureFunc(f)
	}
	f.Width, f.Height = 2, 2
	if cap(f.Pix) < 16 {
		f.Pix = make([]byte, 16)
	}
	f.Pix = f.Pix[:16]
	return nil
}

// Close implements Stream.
func (s *MockStream) Close() error {
	var err error
	if s.CloseFunc != nil {
		err = s.CloseFunc()
	}
	s.mu.Lock()
	s.closes++
	first := s.closes == 1
	cb := s.onClose
	s.mu.Unlock()
	if first && cb != nil {
		cb()
	}
	return err
}

// Closes returns how many times Close was called.
func (s *MockStream) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// ManualTicker is a Ticker driven by Tick.
type ManualTicker struct {
	c       chan time.Time
	stopped chan struct{}
	once    sync.Once
}

// NewManualTicker returns a ticker that only fires on Tick.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{
		c:       make(chan time.Time),
		stopped: make(chan struct{}),
	}
}

// C implements Ticker.
func (t *ManualTicker) C() <-chan time.Time { return t.c }

// Stop implements Ticker.
func (t *ManualTicker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}

// Tick hands one tick to the loop. It returns false if the ticker was
// stopped or nobody took the tick within timeout.
func (t *ManualTicker) Tick(timeout time.Duration) bool {
	select {
	case <-t.stopped:
		return false
	default:
	}
	select {
	case t.c <- time.Now():
		return true
	case <-t.stopped:
		return false
	case <-time.After(timeout):
		return false
	}
}

// Stopped reports whether Stop was called.
func (t *ManualTicker) Stopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}
