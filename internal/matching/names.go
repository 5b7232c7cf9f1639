// Package matching provides fuzzy name comparison for reservation
// ownership checks. Voice transcription mangles names often enough that
// exact string equality would lock guests out of their own bookings.
package matching

import (
	"regexp"
	"strings"
)

// DefaultMaxDistance is the Levenshtein threshold used for verification.
const DefaultMaxDistance = 2

var spaceRe = regexp.MustCompile(`\s+`)

// Levenshtein returns the minimum number of single-character edits
// (insertions, deletions, substitutions) to turn s1 into s2.
func Levenshtein(s1, s2 string) int {
	a := []rune(s1)
	b := []rune(s2)
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i, c1 := range a {
		curr[0] = i + 1
		for j, c2 := range b {
			cost := 0
			if c1 != c2 {
				cost = 1
			}
			curr[j+1] = min(prev[j+1]+1, curr[j]+1, prev[j]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// NormalizeName lowercases, trims, and collapses runs of whitespace.
func NormalizeName(name string) string {
	return spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), " ")
}

// NamesMatch reports whether two names are close enough to be the same
// person: exact after normalization, one contained in the other (when the
// shorter is at least 3 characters), or within maxDistance edits.
func NamesMatch(provided, stored string, maxDistance int) bool {
	p := NormalizeName(provided)
	s := NormalizeName(stored)

	if p == s {
		return true
	}

	// "Dan" should match "Dan Smith", but single letters should not.
	if strings.Contains(p, s) || strings.Contains(s, p) {
		shorter := p
		if len(s) < len(p) {
			shorter = s
		}
		if len(shorter) >= 3 {
			return true
		}
	}

	return Levenshtein(p, s) <= maxDistance
}

// SplitAndMatchNames extends NamesMatch to first/last name variations:
// "John Smith" matches "John" or "Smith", and fuzzy matching applies to
// each part individually.
func SplitAndMatchNames(provided, stored string, maxDistance int) bool {
	if NamesMatch(provided, stored, maxDistance) {
		return true
	}

	providedParts := strings.Fields(NormalizeName(provided))
	storedParts := strings.Fields(NormalizeName(stored))

	if len(providedParts) == 1 {
		for _, part := range storedParts {
			if NamesMatch(provided, part, maxDistance) {
				return true
			}
		}
	}

	if len(storedParts) == 1 {
		for _, part := range providedParts {
			if NamesMatch(part, stored, maxDistance) {
				return true
			}
		}
	}

	// First names carry the reservation in practice.
	if len(providedParts) > 0 && len(storedParts) > 0 {
		if NamesMatch(providedParts[0], storedParts[0], maxDistance) {
			return true
		}
	}

	return false
}
