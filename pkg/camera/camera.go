package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/teslashibe/qrlookup/pkg/scanner"
	"gocv.io/x/gocv"
)

// Camera implements scanner.Camera on top of gocv.VideoCapture.
type Camera struct {
	mu     sync.RWMutex
	config Config
}

// New creates a camera with the given configuration.
func New(cfg Config) (*Camera, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", errs)
	}
	return &Camera{config: cfg}, nil
}

// Config returns the configuration used by the next Open.
func (c *Camera) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// SetConfig replaces the configuration. Open streams keep their settings.
func (c *Camera) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera: validation failed: %v", errs)
	}
	c.mu.Lock()
	c.config = cfg
	c.mu.Unlock()
	return nil
}

// device resolves the index for a facing mode.
func (c Config) device(facing scanner.FacingMode) int {
	if facing == scanner.FacingUser && c.FrontDevice >= 0 {
		return c.FrontDevice
	}
	return c.Device
}

// Open acquires the device for facing and applies the configured mode.
func (c *Camera) Open(ctx context.Context, facing scanner.FacingMode) (scanner.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := c.Config()
	dev := cfg.device(facing)

	vc, err := gocv.OpenVideoCapture(dev)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", scanner.ErrNoCamera, dev, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d not opened", scanner.ErrNoCamera, dev)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	return &stream{
		vc:   vc,
		bgr:  gocv.NewMat(),
		rgba: gocv.NewMat(),
	}, nil
}

// stream holds the device and the Mats reused across ticks.
type stream struct {
	mu     sync.Mutex
	vc     *gocv.VideoCapture
	bgr    gocv.Mat
	rgba   gocv.Mat
	closed bool
}

// Ready grabs the next frame; it is false until the device delivers one.
func (s *stream) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.vc.Read(&s.bgr) && !s.bgr.Empty()
}

// Capture converts the last grabbed frame into RGBA pixels.
func (s *stream) Capture(f *scanner.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("camera: stream closed")
	}
	if s.bgr.Empty() {
		return errors.New("camera: no frame grabbed")
	}

	gocv.CvtColor(s.bgr, &s.rgba, gocv.ColorBGRToRGBA)
	f.Width = s.rgba.Cols()
	f.Height = s.rgba.Rows()
	f.Pix = append(f.Pix[:0], s.rgba.ToBytes()...)
	return nil
}

// Close releases the Mats and the device. Extra calls are no-ops.
func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.bgr.Close()
	s.rgba.Close()
	return s.vc.Close()
}

// Verify Camera implements scanner.Camera at compile time.
var _ scanner.Camera = (*Camera)(nil)
