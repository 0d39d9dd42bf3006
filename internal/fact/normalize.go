package fact

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Key case-folds s so that descriptions differing only in letter case compare equal.
// Folding is full Unicode folding, so "groß" and "GROSS" share a key.
// Whitespace and accents are significant.
func Key(s string) string {
	// Casers carry state and must not be shared between goroutines.
	return cases.Fold().String(s)
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}
