package lookupclient

import (
	"fmt"
	"io"
	"strings"

	"github.com/teslashibe/qrlookup/pkg/lookup"
)

// Missing is shown for a column the record does not have.
const Missing = "—"

// DisplayColumns are the columns shown for a found record, in order.
var DisplayColumns = []string{
	"CODIGO", "NOMBRE", "PLACA", "NUMERO DE CONTACTO", "ULTIMO PAGO", "QR", "RECIBO",
}

// Display picks columns out of rec. Keys match after trimming and
// uppercasing both sides; the first matching key wins.
func Display(rec lookup.Record, columns []string) []lookup.Field {
	out := make([]lookup.Field, 0, len(columns))
	for _, col := range columns {
		want := strings.ToUpper(strings.TrimSpace(col))
		value := Missing
		for _, f := range rec.Fields() {
			if strings.ToUpper(strings.TrimSpace(f.Key)) == want {
				value = f.Value
				break
			}
		}
		out = append(out, lookup.Field{Key: col, Value: value})
	}
	return out
}

// Print writes a human-readable outcome of a lookup to w.
func Print(w io.Writer, res *lookup.Result) {
	if res == nil || !res.Found {
		code := ""
		if res != nil {
			code = res.Code
		}
		fmt.Fprintf(w, "❌ No se encontró el código %s en Google Sheets\n", code)
		return
	}

	fields := Display(res.Record, DisplayColumns)
	width := 0
	for _, f := range fields {
		if n := len([]rune(f.Key)); n > width {
			width = n
		}
	}
	for _, f := range fields {
		fmt.Fprintf(w, "   %-*s  %s\n", width, f.Key, f.Value)
	}
}
