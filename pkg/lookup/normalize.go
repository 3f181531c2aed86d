package lookup

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CodeColumnAliases are the header names that mark the code column.
var CodeColumnAliases = []string{"CODIGO", "CÓDIGO"}

// NormalizeHeader trims s, folds diacritics and uppercases it, so that
// "Código ", "codigo" and "CODIGO" compare equal.
func NormalizeHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = strings.TrimSpace(s)
	}
	return strings.ToUpper(folded)
}

// IsCodeHeader reports whether h names the code column.
func IsCodeHeader(h string) bool {
	n := NormalizeHeader(h)
	for _, alias := range CodeColumnAliases {
		if n == NormalizeHeader(alias) {
			return true
		}
	}
	return false
}

// ResolveCodeColumn returns the index of the leftmost code column.
func ResolveCodeColumn(headers []string) (int, error) {
	for i, h := range headers {
		if IsCodeHeader(h) {
			return i, nil
		}
	}
	return -1, &ColumnError{Headers: append([]string(nil), headers...)}
}
