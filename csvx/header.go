package csvx

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader turns a column title into a stable key: trimmed, lower-cased,
// whitespace runs replaced by "_", accents stripped ("Année" -> "annee") and any
// character outside [a-z0-9_] removed.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.Join(strings.Fields(h), "_")
	h = stripAccents(h)

	var b strings.Builder
	b.Grow(len(h))
	for _, r := range h {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
