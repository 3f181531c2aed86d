package decoder

import (
	"reflect"
	"testing"

	"github.com/teslashibe/qrlookup/pkg/scanner"
)

func TestPasses(t *testing.T) {
	tests := []struct {
		in   scanner.InversionAttempts
		want []bool
	}{
		{scanner.DontInvert, []bool{false}},
		{scanner.OnlyInvert, []bool{true}},
		{scanner.AttemptBoth, []bool{false, true}},
		{scanner.InvertFirst, []bool{true, false}},
		{"", []bool{false}},
	}
	for _, tc := range tests {
		t.Run(string(tc.in), func(t *testing.T) {
			if got := Passes(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Passes(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	q := NewQR()
	defer q.Close()

	if _, ok := q.Decode(make([]byte, 10), 4, 4, scanner.DecodeOptions{}); ok {
		t.Error("short buffer should not decode")
	}
	if _, ok := q.Decode(nil, 0, 0, scanner.DecodeOptions{}); ok {
		t.Error("empty frame should not decode")
	}
}

func TestDecodeBlankFrame(t *testing.T) {
	q := NewQR()
	defer q.Close()

	pix := make([]byte, 64*64*4)
	for i := range pix {
		pix[i] = 0xff
	}
	if code, ok := q.Decode(pix, 64, 64, scanner.DecodeOptions{InversionAttempts: scanner.AttemptBoth}); ok {
		t.Errorf("blank frame decoded to %q", code)
	}
}
