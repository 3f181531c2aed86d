package lookup

import (
	"errors"
	"testing"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"codigo", "CODIGO"},
		{"  Código\t", "CODIGO"},
		{"CÓDIGO", "CODIGO"},
		{"Número de contacto", "NUMERO DE CONTACTO"},
		{"Código", "CODIGO"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := NormalizeHeader(tc.in); got != tc.want {
				t.Errorf("NormalizeHeader(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestResolveCodeColumn(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    int
	}{
		{"upper", []string{"CODIGO", "NOMBRE"}, 0},
		{"lower", []string{"NOMBRE", "codigo"}, 1},
		{"accented", []string{"ID", "Nombre", "Código"}, 2},
		{"accented upper", []string{"CÓDIGO"}, 0},
		{"padded", []string{"ID", " CODIGO "}, 1},
		{"leftmost wins", []string{"Código", "CODIGO"}, 0},
		{"missing", []string{"ID", "Nombre"}, -1},
		{"prefix only", []string{"CODIGO QR"}, -1},
		{"empty", nil, -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveCodeColumn(tc.headers)
			if tc.want < 0 {
				var colErr *ColumnError
				if !errors.As(err, &colErr) {
					t.Fatalf("err = %v, want *ColumnError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveCodeColumn: %v", err)
			}
			if got != tc.want {
				t.Errorf("index = %d, want %d", got, tc.want)
			}
		})
	}
}
