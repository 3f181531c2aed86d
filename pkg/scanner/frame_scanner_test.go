package scanner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const tickWait = time.Second

// harness wires a scanner to a mock camera and manual tickers.
type harness struct {
	scanner *Scanner
	camera  *MockCamera
	tickers chan *ManualTicker
	codes   chan string
	errs    chan error
}

func newHarness(t *testing.T, dec Decoder, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		camera:  NewMockCamera(),
		tickers: make(chan *ManualTicker, 8),
		codes:   make(chan string, 8),
		errs:    make(chan error, 8),
	}
	base := []Option{
		WithTicker(func(time.Duration) Ticker {
			tk := NewManualTicker()
			h.tickers <- tk
			return tk
		}),
		WithOnCode(func(code string) { h.codes <- code }),
		WithOnError(func(err error) { h.errs <- err }),
	}
	h.scanner = New(h.camera, dec, append(base, opts...)...)
	t.Cleanup(h.scanner.Stop)
	return h
}

func (h *harness) ticker(t *testing.T) *ManualTicker {
	t.Helper()
	select {
	case tk := <-h.tickers:
		return tk
	case <-time.After(tickWait):
		t.Fatal("no ticker created")
		return nil
	}
}

// decodeAfter finds code on the n-th attempt.
func decodeAfter(n int, code string) (Decoder, *atomic.Int32) {
	var calls atomic.Int32
	return DecoderFunc(func(pix []byte, w, h int, opts DecodeOptions) (string, bool) {
		if int(calls.Add(1)) >= n {
			return code, true
		}
		return "", false
	}), &calls
}

func never() Decoder {
	return DecoderFunc(func([]byte, int, int, DecodeOptions) (string, bool) { return "", false })
}

func TestStopIsIdempotent(t *testing.T) {
	h := newHarness(t, never())

	h.scanner.Stop()
	h.scanner.Stop()
	if got := h.scanner.State(); got != Idle {
		t.Fatalf("State = %s, want idle", got)
	}

	if err := h.scanner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 3; i++ {
		h.scanner.Stop()
	}
	if got := h.scanner.State(); got != Stopped {
		t.Errorf("State = %s, want stopped", got)
	}
	if n := h.camera.OpenStreams(); n != 0 {
		t.Errorf("open streams = %d, want 0", n)
	}
	if c := h.camera.Streams()[0].Closes(); c != 1 {
		t.Errorf("stream closed %d times, want 1", c)
	}
}

func TestStartCameraFailure(t *testing.T) {
	tests := []struct {
		name string
		open func(ctx context.Context, facing FacingMode) (Stream, error)
	}{
		{
			name: "no device",
			open: func(context.Context, FacingMode) (Stream, error) { return nil, ErrNoCamera },
		},
		{
			name: "stream returned with error",
			open: func(context.Context, FacingMode) (Stream, error) { return NewMockStream(), ErrNoCamera },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, never())
			h.camera.OpenFunc = tc.open

			err := h.scanner.Start(context.Background())
			var camErr *CameraError
			if !errors.As(err, &camErr) {
				t.Fatalf("err = %v, want *CameraError", err)
			}
			if !errors.Is(err, ErrNoCamera) {
				t.Errorf("err should wrap ErrNoCamera: %v", err)
			}
			if camErr.Facing != FacingEnvironment {
				t.Errorf("Facing = %s", camErr.Facing)
			}
			if got := h.scanner.State(); got != Idle {
				t.Errorf("State = %s, want idle", got)
			}
			if n := h.camera.OpenStreams(); n != 0 {
				t.Errorf("open streams = %d, want 0", n)
			}
		})
	}
}

func TestStartWithCancelledContext(t *testing.T) {
	h := newHarness(t, never())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.scanner.Start(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n := h.camera.OpenStreams(); n != 0 {
		t.Errorf("open streams = %d, want 0", n)
	}
	if got := h.scanner.State(); got != Idle {
		t.Errorf("State = %s, want idle", got)
	}
}

func TestFoundEmitsExactlyOnce(t *testing.T) {
	dec, calls := decodeAfter(3, "A1")
	h := newHarness(t, dec)

	if err := h.scanner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := h.scanner.State(); got != Capturing {
		t.Fatalf("State = %s, want capturing", got)
	}
	tk := h.ticker(t)
	for i := 0; i < 3; i++ {
		if !tk.Tick(tickWait) {
			t.Fatalf("tick %d not taken", i)
		}
	}

	select {
	case code := <-h.codes:
		if code != "A1" {
			t.Errorf("code = %q, want A1", code)
		}
	case <-time.After(tickWait):
		t.Fatal("no code emitted")
	}

	if tk.Tick(50 * time.Millisecond) {
		t.Error("tick accepted after code was found")
	}
	if !tk.Stopped() {
		t.Error("ticker should be stopped")
	}
	select {
	case code := <-h.codes:
		t.Errorf("second code emitted: %q", code)
	default:
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("decode calls = %d, want 3", n)
	}
	if got := h.scanner.State(); got != Found {
		t.Errorf("State = %s, want found", got)
	}
	if n := h.camera.OpenStreams(); n != 0 {
		t.Errorf("open streams = %d, want 0", n)
	}
}

func TestNotReadySkipsDecode(t *testing.T) {
	var ready atomic.Bool
	dec, calls := decodeAfter(1, "A1")
	h := newHarness(t, dec)
	h.camera.OpenFunc = func(context.Context, FacingMode) (Stream, error) {
		st := NewMockStream()
		st.ReadyFunc = ready.Load
		return st, nil
	}

	if err := h.scanner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tk := h.ticker(t)
	for i := 0; i < 3; i++ {
		tk.Tick(tickWait)
	}
	// The loop is single-threaded: once this tick is taken the previous
	// ones have been fully handled.
	tk.Tick(tickWait)
	if n := calls.Load(); n != 0 {
		t.Fatalf("decode calls = %d before frames were ready", n)
	}
	if got := h.scanner.Ticks(); got < 3 {
		t.Errorf("Ticks = %d, want >= 3", got)
	}

	ready.Store(true)
	tk.Tick(tickWait)
	select {
	case <-h.codes:
	case <-time.After(tickWait):
		t.Fatal("no code after frames became ready")
	}
	if n := h.scanner.Attempts(); n != 1 {
		t.Errorf("Attempts = %d, want 1", n)
	}
}

func TestRestartReleasesPreviousStream(t *testing.T) {
	h := newHarness(t, never())

	if err := h.scanner.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	first := h.ticker(t)
	if err := h.scanner.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	h.ticker(t)

	if n := h.camera.Opens(); n != 2 {
		t.Errorf("opens = %d, want 2", n)
	}
	if n := h.camera.MaxOpen(); n != 1 {
		t.Errorf("max simultaneously open = %d, want 1", n)
	}
	if c := h.camera.Streams()[0].Closes(); c != 1 {
		t.Errorf("first stream closed %d times, want 1", c)
	}
	if !first.Stopped() {
		t.Error("first session ticker should be stopped")
	}
	if got := h.scanner.State(); got != Capturing {
		t.Errorf("State = %s, want capturing", got)
	}
}

func TestStopDuringDecodeSuppressesCode(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	dec := DecoderFunc(func([]byte, int, int, DecodeOptions) (string, bool) {
		close(entered)
		<-release
		return "A1", true
	})
	h := newHarness(t, dec)

	if err := h.scanner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.ticker(t).Tick(tickWait)
	<-entered

	stopped := make(chan struct{})
	go func() {
		h.scanner.Stop()
		close(stopped)
	}()

	deadline := time.Now().Add(tickWait)
	for h.scanner.State() != Stopped {
		if time.Now().After(deadline) {
			t.Fatal("Stop never detached the session")
		}
		time.Sleep(time.Millisecond)
	}
	select {
	case <-stopped:
		t.Fatal("Stop returned while a decode was in flight")
	default:
	}

	close(release)
	<-stopped

	select {
	case code := <-h.codes:
		t.Errorf("code %q emitted after Stop", code)
	default:
	}
	if n := h.camera.OpenStreams(); n != 0 {
		t.Errorf("open streams = %d, want 0", n)
	}
}

func TestCaptureErrorEndsSession(t *testing.T) {
	boom := errors.New("device unplugged")
	h := newHarness(t, never())
	h.camera.OpenFunc = func(context.Context, FacingMode) (Stream, error) {
		st := NewMockStream()
		st.CaptureFunc = func(*Frame) error { return boom }
		return st, nil
	}

	if err := h.scanner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.ticker(t).Tick(tickWait)

	select {
	case err := <-h.errs:
		var capErr *CaptureError
		if !errors.As(err, &capErr) || !errors.Is(err, boom) {
			t.Errorf("err = %v, want *CaptureError wrapping cause", err)
		}
	case <-time.After(tickWait):
		t.Fatal("no error reported")
	}
	if got := h.scanner.State(); got != Stopped {
		t.Errorf("State = %s, want stopped", got)
	}
	if n := h.camera.OpenStreams(); n != 0 {
		t.Errorf("open streams = %d, want 0", n)
	}
}

func TestScan(t *testing.T) {
	t.Run("returns code", func(t *testing.T) {
		dec, _ := decodeAfter(5, "B7")
		s := New(NewMockCamera(), dec, WithFrameInterval(time.Millisecond))
		defer s.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		code, err := s.Scan(ctx)
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if code != "B7" {
			t.Errorf("code = %q, want B7", code)
		}
	})

	t.Run("stopped", func(t *testing.T) {
		s := New(NewMockCamera(), never(), WithFrameInterval(time.Millisecond))
		go func() {
			time.Sleep(20 * time.Millisecond)
			s.Stop()
		}()
		if _, err := s.Scan(context.Background()); !errors.Is(err, ErrStopped) {
			t.Fatalf("err = %v, want ErrStopped", err)
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		cam := NewMockCamera()
		s := New(cam, never(), WithFrameInterval(time.Millisecond))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if _, err := s.Scan(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("err = %v, want DeadlineExceeded", err)
		}
		if n := cam.OpenStreams(); n != 0 {
			t.Errorf("open streams = %d, want 0", n)
		}
		if got := s.State(); got != Stopped {
			t.Errorf("State = %s, want stopped", got)
		}
	})
}

func TestSingleCodePerSuccessWithFastTicks(t *testing.T) {
	var count atomic.Int32
	dec := DecoderFunc(func([]byte, int, int, DecodeOptions) (string, bool) { return "A1", true })
	s := New(NewMockCamera(), dec,
		WithFrameInterval(100*time.Microsecond),
		WithOnCode(func(string) { count.Add(1) }),
	)
	defer s.Stop()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if n := count.Load(); n != 1 {
		t.Errorf("codes emitted = %d, want 1", n)
	}
	if n := s.Attempts(); n != 1 {
		t.Errorf("Attempts = %d, want 1", n)
	}
}

func TestOnCodeMayRestart(t *testing.T) {
	cam := NewMockCamera()
	var (
		mu    sync.Mutex
		codes []string
	)
	restarted := make(chan error, 1)

	var s *Scanner
	dec, _ := decodeAfter(1, "A1")
	s = New(cam, dec,
		WithFrameInterval(time.Millisecond),
		WithOnCode(func(code string) {
			mu.Lock()
			codes = append(codes, code)
			first := len(codes) == 1
			mu.Unlock()
			if first {
				restarted <- s.Start(context.Background())
			}
		}),
	)
	defer s.Stop()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case err := <-restarted:
		if err != nil {
			t.Fatalf("restart: %v", err)
		}
	case <-time.After(tickWait):
		t.Fatal("OnCode never restarted the scanner")
	}
	if n := cam.Opens(); n != 2 {
		t.Errorf("opens = %d, want 2", n)
	}
	if n := cam.MaxOpen(); n != 1 {
		t.Errorf("max simultaneously open = %d, want 1", n)
	}
}

func TestInversionPassedToDecoder(t *testing.T) {
	got := make(chan InversionAttempts, 1)
	dec := DecoderFunc(func(_ []byte, w, h int, opts DecodeOptions) (string, bool) {
		if w != 2 || h != 2 {
			t.Errorf("frame = %dx%d, want 2x2", w, h)
		}
		got <- opts.InversionAttempts
		return "A1", true
	})
	hs := newHarness(t, dec, WithInversion(AttemptBoth))

	if err := hs.scanner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	hs.ticker(t).Tick(tickWait)

	select {
	case inv := <-got:
		if inv != AttemptBoth {
			t.Errorf("InversionAttempts = %s, want attemptBoth", inv)
		}
	case <-time.After(tickWait):
		t.Fatal("decoder not called")
	}
}

func TestStopWaitsForSlowReleaseAfterFound(t *testing.T) {
	cam := NewMockCamera()
	cam.OpenFunc = func(ctx context.Context, facing FacingMode) (Stream, error) {
		st := NewMockStream()
		st.CloseFunc = func() error {
			time.Sleep(100 * time.Millisecond)
			return nil
		}
		return st, nil
	}
	dec, _ := decodeAfter(1, "A1")
	s := New(cam, dec, WithFrameInterval(time.Millisecond))
	defer s.Stop()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Wait for the decode; the release is still sleeping in Close.
	deadline := time.Now().Add(tickWait)
	for s.State() != Found {
		if time.Now().After(deadline) {
			t.Fatal("code never found")
		}
		time.Sleep(time.Millisecond)
	}

	s.Stop()
	if n := cam.OpenStreams(); n != 0 {
		t.Errorf("open streams after Stop = %d, want 0", n)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if n := cam.MaxOpen(); n != 1 {
		t.Errorf("max simultaneously open = %d, want 1", n)
	}
}

func TestRestartWaitsForSlowReleaseAfterCaptureError(t *testing.T) {
	cam := NewMockCamera()
	var opened atomic.Int32
	cam.OpenFunc = func(ctx context.Context, facing FacingMode) (Stream, error) {
		st := NewMockStream()
		if opened.Add(1) == 1 {
			st.CaptureFunc = func(*Frame) error { return errors.New("device gone") }
			st.CloseFunc = func() error {
				time.Sleep(100 * time.Millisecond)
				return nil
			}
		}
		return st, nil
	}
	errs := make(chan error, 1)
	s := New(cam, never(), WithFrameInterval(time.Millisecond), WithOnError(func(err error) { errs <- err }))
	defer s.Stop()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(tickWait)
	for s.State() != Stopped {
		if time.Now().After(deadline) {
			t.Fatal("capture error never ended the session")
		}
		time.Sleep(time.Millisecond)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if n := cam.MaxOpen(); n != 1 {
		t.Errorf("max simultaneously open = %d, want 1", n)
	}

	select {
	case err := <-errs:
		var ce *CaptureError
		if !errors.As(err, &ce) {
			t.Errorf("OnError got %v, want *CaptureError", err)
		}
	case <-time.After(tickWait):
		t.Error("OnError not called")
	}
}
