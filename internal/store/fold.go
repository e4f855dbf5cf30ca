package store

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// foldCaser performs Unicode caseless matching (simple case folding);
// lowerCaser normalizes the already-folded form to lowercase so ASCII
// comparisons stay stable across locales.
var (
	foldCaser  = cases.Fold()
	lowerCaser = cases.Lower(language.Und)
)

// Fold reduces s to the case-folded form used for both indexed
// name/path strings and incoming queries. This is ASCII-lowercase plus
// simple Unicode case-folding, not full NFKC normalization.
func Fold(s string) string {
	return strings.ToLower(lowerCaser.String(foldCaser.String(s)))
}

// bigrams returns every overlapping 2-rune window of s, or nil if s has
// fewer than 2 runes.
func bigrams(s string) []string {
	r := []rune(s)
	if len(r) < 2 {
		return nil
	}
	out := make([]string, 0, len(r)-1)
	for i := 0; i < len(r)-1; i++ {
		out = append(out, string(r[i:i+2]))
	}
	return out
}
