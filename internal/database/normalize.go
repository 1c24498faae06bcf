package database

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "René" -> "Rene").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeName normalizes an employee display name for lookup: diacritics
// removed, lowercased, surrounding whitespace trimmed, inner runs of
// whitespace collapsed. Kiosk operators type names by hand, so "  José
// GARCÍA " must resolve the same employee as "jose garcia".
func NormalizeName(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), " ")
}
