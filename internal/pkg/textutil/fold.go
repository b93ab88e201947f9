// Package textutil holds the text folding shared by the matcher and the
// catalog backends so that both sides compare strings the same way.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ligatures are not decomposed by NFD, so they are expanded by hand
var ligatures = strings.NewReplacer("œ", "oe", "æ", "ae", "ß", "ss", "’", "'")

// Fold lowercases s, expands ligatures and strips diacritics
// ("Bœuf Haché" -> "boeuf hache").
func Fold(s string) string {
	s = ligatures.Replace(strings.ToLower(s))
	// transformers carry state; build one per call so Fold is goroutine safe
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
