// Package match implements job-title normalization and fuzzy matching for
// the source gatherers.
package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// adNoise matches job-ad decorations that carry no title information:
// parenthetical qualifiers, gender markers, remote/hybrid tags.
var adNoise = regexp.MustCompile(
	`(?i)\s*(\(.*?\)|\[.*?\]|\bm/w/d\b|\bm/f/d\b|\bf/m/x\b|\bremote\b|\bhybrid\b|\bonsite\b)\s*`)

var nonAlnum = regexp.MustCompile(`[^A-Z0-9 ]+`)

var multiSpace = regexp.MustCompile(`\s{2,}`)

// foldDiacritics strips combining marks so "ingénieur" and "ingenieur"
// normalize identically.
var foldDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize canonicalizes a job title for comparison: uppercase, diacritics
// folded, ad noise and punctuation stripped, whitespace collapsed.
func Normalize(title string) string {
	t := strings.TrimSpace(title)
	if folded, _, err := transform.String(foldDiacritics, t); err == nil {
		t = folded
	}
	t = adNoise.ReplaceAllString(t, " ")
	t = strings.ToUpper(t)
	t = nonAlnum.ReplaceAllString(t, " ")
	t = multiSpace.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// ContainsFold reports whether the normalized haystack contains the
// normalized needle. This is the lowest-quality fallback tier.
func ContainsFold(haystack, needle string) bool {
	h := Normalize(haystack)
	n := Normalize(needle)
	if h == "" || n == "" {
		return false
	}
	return strings.Contains(h, n) || strings.Contains(n, h)
}
