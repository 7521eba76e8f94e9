package storage

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugRegex = regexp.MustCompile("[^0-9a-z]+")

// Fold lowercases s and strips diacritics, so "Dom Casmurro Ê" becomes "dom casmurro e".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// MakeSlug returns the given string in a "foo-bar-yes" format.
func MakeSlug(s string) string {
	return strings.Trim(slugRegex.ReplaceAllString(Fold(s), "-"), "-")
}
