package database

import (
	"golang.org/x/text/cases"
)

// Fold returns the Unicode case-folded form of s. Caption text is stored folded
// and search keywords are folded the same way so matching is case-insensitive
// beyond ASCII.
func Fold(s string) string {
	// A Caser keeps state between calls and must not be shared across goroutines.
	return cases.Fold().String(s)
}
