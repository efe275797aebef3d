package booking

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold strips diacritics and lowercases. Every speciality, motive and keyword
// comparison in the matching engine goes through it, so two labels differing
// only in accent or case are always treated as identical.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

var dashRuns = regexp.MustCompile(`-+`)

// Slugify turns a display name into the URL-safe id segment the site uses.
func Slugify(s string) string {
	s = Fold(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "'", "-").Replace(s)
	return dashRuns.ReplaceAllString(s, "-")
}
