package scanner

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/qrlookup/internal/log"
)

// Scanner is a FrameScanner: it owns the camera stream of the active session
// and runs one capture+decode attempt per tick until a code is found or the
// session is stopped.
type Scanner struct {
	camera  Camera
	decoder Decoder
	cfg     Config
	logger  *slog.Logger

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex

	mu      sync.Mutex
	state   State
	session *session

	// last is the most recent session. Its done channel closes only after
	// its stream is released, whichever path detached it.
	last *session

	ticks    atomic.Uint64
	attempts atomic.Uint64
}

// session is one Start..Found/Stopped span. Whoever detaches it from the
// Scanner owns its release.
type session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	stream  Stream
	ticker  Ticker
	done    chan struct{}
	outcome chan outcome
}

type outcome struct {
	code string
	err  error
}

// New creates an idle scanner.
func New(camera Camera, decoder Decoder, opts ...Option) *Scanner {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = NewTimeTicker
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	return &Scanner{
		camera:  camera,
		decoder: decoder,
		cfg:     *cfg,
		logger:  log.Or(cfg.Logger).With("component", "scanner"),
	}
}

// State returns the current lifecycle state.
func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ticks returns the number of ticks handled across all sessions.
func (s *Scanner) Ticks() uint64 {
	return s.ticks.Load()
}

// Attempts returns the number of decode attempts across all sessions.
func (s *Scanner) Attempts() uint64 {
	return s.attempts.Load()
}

// Start stops any running session, acquires the camera and begins scanning.
// ctx bounds both the acquisition and the session. On failure the state is
// Idle, no stream is held and the error is a *CameraError.
func (s *Scanner) Start(ctx context.Context) error {
	_, err := s.start(ctx)
	return err
}

// Scan starts a session and waits for its outcome: the decoded code, a
// *CaptureError, ErrStopped if Stop or a restart ended it, or the ctx error.
func (s *Scanner) Scan(ctx context.Context) (string, error) {
	sess, err := s.start(ctx)
	if err != nil {
		return "", err
	}
	o := <-sess.outcome
	return o.code, o.err
}

// Stop ends the running session, if any, and releases the camera. It may be
// called any number of times from any state. When it returns no decode is in
// flight and no stream is held.
func (s *Scanner) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stopLocked()
}

func (s *Scanner) start(ctx context.Context) (*session, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.stopLocked()

	stream, err := s.camera.Open(ctx, s.cfg.Facing)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		if stream != nil {
			stream.Close()
		}
		s.mu.Lock()
		s.state = Idle
		s.mu.Unlock()
		s.logger.Warn("camera unavailable", "facing", s.cfg.Facing, "error", err)
		return nil, &CameraError{Facing: s.cfg.Facing, Err: err}
	}

	sctx, cancel := context.WithCancel(ctx)
	sess := &session{
		ctx:     sctx,
		cancel:  cancel,
		stream:  stream,
		ticker:  s.cfg.NewTicker(s.cfg.FrameInterval),
		done:    make(chan struct{}),
		outcome: make(chan outcome, 1),
	}

	s.mu.Lock()
	s.session = sess
	s.last = sess
	s.state = Capturing
	s.mu.Unlock()

	s.logger.Debug("scan started", "facing", s.cfg.Facing, "interval", s.cfg.FrameInterval)
	go s.run(sess)
	return sess, nil
}

func (s *Scanner) stopLocked() {
	s.mu.Lock()
	sess, last := s.session, s.last
	if sess != nil {
		s.session = nil
		s.state = Stopped
	}
	s.mu.Unlock()

	if sess == nil {
		// A session that ended on its own may still be releasing.
		if last != nil {
			<-last.done
		}
		return
	}
	sess.cancel()
	<-sess.done
	s.release(sess)
	sess.outcome <- outcome{err: ErrStopped}
	s.logger.Debug("scan stopped")
}

// detach removes sess from the scanner if it is still the active session.
func (s *Scanner) detach(sess *session, next State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != sess {
		return false
	}
	s.session = nil
	s.state = next
	return true
}

func (s *Scanner) release(sess *session) {
	sess.cancel()
	sess.ticker.Stop()
	if err := sess.stream.Close(); err != nil {
		s.logger.Warn("camera release failed", "error", err)
	}
}

// run drives one session. Callbacks fire after done is closed so they may
// call Start or Stop.
func (s *Scanner) run(sess *session) {
	o, owned := s.loop(sess)
	close(sess.done)
	if !owned {
		return
	}

	sess.outcome <- o
	switch {
	case o.err == nil:
		if s.cfg.OnCode != nil {
			s.cfg.OnCode(o.code)
		}
	case o.err != sess.ctx.Err():
		if s.cfg.OnError != nil {
			s.cfg.OnError(o.err)
		}
	}
}

// loop ticks until the session ends. owned reports whether this goroutine
// detached the session; if so the stream is already released.
func (s *Scanner) loop(sess *session) (o outcome, owned bool) {
	opts := DecodeOptions{InversionAttempts: s.cfg.Inversion}
	var frame Frame

	for {
		select {
		case <-sess.ctx.Done():
			if !s.detach(sess, Stopped) {
				return outcome{}, false
			}
			s.release(sess)
			return outcome{err: sess.ctx.Err()}, true
		case <-sess.ticker.C():
		}
		if sess.ctx.Err() != nil {
			continue
		}
		s.ticks.Add(1)

		if !sess.stream.Ready() {
			continue
		}
		if err := sess.stream.Capture(&frame); err != nil {
			return s.fail(sess, &CaptureError{Err: err})
		}

		s.attempts.Add(1)
		code, ok := s.decoder.Decode(frame.Pix, frame.Width, frame.Height, opts)
		if !ok {
			continue
		}

		if !s.detach(sess, Found) {
			return outcome{}, false
		}
		s.release(sess)
		s.logger.Info("code found", "code", code, "attempts", s.attempts.Load())
		return outcome{code: code}, true
	}
}

func (s *Scanner) fail(sess *session, err error) (outcome, bool) {
	if !s.detach(sess, Stopped) {
		return outcome{}, false
	}
	s.release(sess)
	s.logger.Error("scan aborted", "error", err)
	return outcome{err: err}, true
}
