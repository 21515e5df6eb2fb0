// Package match normalizes and compares titles across the two services.
// Titles are the only shared identity between a Zotero item and a
// NotebookLM source or note, so duplicate suppression and reverse-sync
// matching both go through the folding here.
package match

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Fold returns the canonical comparison form of a title: NFC-normalized,
// Unicode case-folded, and trimmed of surrounding whitespace. Titles
// round-trip through two services with different Unicode habits, so plain
// ToLower is not enough.
func Fold(s string) string {
	return folder.String(norm.NFC.String(strings.TrimSpace(s)))
}

// Equal reports whether two titles are the same under folding.
func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}

// Overlaps reports whether one folded title contains the other. This is
// the deliberately approximate heuristic used to pair a generated note
// with a library item: a note "Summary of Transformers" matches an item
// "Transformers". Short titles can over-match; that behavior is kept
// as-is.
func Overlaps(a, b string) bool {
	fa, fb := Fold(a), Fold(b)
	if fa == "" || fb == "" {
		return false
	}
	return strings.Contains(fa, fb) || strings.Contains(fb, fa)
}

// TitleSet is a set of folded titles, used to snapshot what already
// exists on one side before transferring.
type TitleSet map[string]struct{}

// NewTitleSet folds and collects the given titles.
func NewTitleSet(titles ...string) TitleSet {
	s := make(TitleSet, len(titles))
	for _, t := range titles {
		s.Add(t)
	}
	return s
}

// Add inserts a title into the set.
func (s TitleSet) Add(title string) {
	s[Fold(title)] = struct{}{}
}

// Contains reports whether an equivalent title is present.
func (s TitleSet) Contains(title string) bool {
	_, ok := s[Fold(title)]
	return ok
}
