package semantic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds a label to its lookup key: trimmed, lower-cased and with
// diacritics removed, so "  Río " and "rio" are the same label.
func Normalize(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(label)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(label))
	}
	return folded
}

// SplitLabels splits comma separated label lists, dropping entries of at
// most one character.
func SplitLabels(lists ...string) []string {
	var labels []string
	for _, part := range strings.Split(strings.Join(lists, ","), ",") {
		if len(part) > 1 {
			labels = append(labels, part)
		}
	}
	return labels
}
