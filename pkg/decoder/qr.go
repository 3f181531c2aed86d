// Package decoder finds QR codes in RGBA frames using OpenCV's QRCodeDetector.
package decoder

import (
	"sync"

	"github.com/teslashibe/qrlookup/pkg/scanner"
	"gocv.io/x/gocv"
)

// QR implements scanner.Decoder.
type QR struct {
	mu       sync.Mutex // Protects detector
	detector gocv.QRCodeDetector
}

// NewQR creates a QR decoder. Call Close to release it.
func NewQR() *QR {
	return &QR{detector: gocv.NewQRCodeDetector()}
}

// Passes returns, in order, whether each detection pass runs on the inverted
// image. Unknown values behave like DontInvert.
func Passes(a scanner.InversionAttempts) []bool {
	switch a {
	case scanner.OnlyInvert:
		return []bool{true}
	case scanner.AttemptBoth:
		return []bool{false, true}
	case scanner.InvertFirst:
		return []bool{true, false}
	default:
		return []bool{false}
	}
}

// Decode looks for a QR code in pix (RGBA, width*height*4 bytes). Any
// failure inside OpenCV is reported as "no code".
func (q *QR) Decode(pix []byte, width, height int, opts scanner.DecodeOptions) (code string, ok bool) {
	if width <= 0 || height <= 0 || len(pix) < width*height*4 {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			code, ok = "", false
		}
	}()

	q.mu.Lock()
	defer q.mu.Unlock()

	rgba, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC4, pix[:width*height*4])
	if err != nil {
		return "", false
	}
	defer rgba.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(rgba, &gray, gocv.ColorRGBAToGray)

	for _, invert := range Passes(opts.InversionAttempts) {
		if !invert {
			if code, ok := q.detect(gray); ok {
				return code, true
			}
			continue
		}
		inverted := gocv.NewMat()
		gocv.BitwiseNot(gray, &inverted)
		code, ok := q.detect(inverted)
		inverted.Close()
		if ok {
			return code, true
		}
	}
	return "", false
}

func (q *QR) detect(img gocv.Mat) (string, bool) {
	points := gocv.NewMat()
	defer points.Close()
	straight := gocv.NewMat()
	defer straight.Close()

	code := q.detector.DetectAndDecode(img, &points, &straight)
	return code, code != ""
}

// Close releases the detector.
func (q *QR) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.detector.Close()
}

// Verify QR implements scanner.Decoder at compile time.
var _ scanner.Decoder = (*QR)(nil)
