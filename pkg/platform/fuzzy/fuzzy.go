// Package fuzzy provides edit-distance based string similarity.
//
// OCR output is noisy, so exact comparison is useless for names and
// free-text fields. Similarity scores from this package drive field
// voting, claim matching and duplicate detection.
package fuzzy

import "strings"

// Levenshtein returns the edit distance between a and b.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// Similarity returns a normalized similarity in [0, 1]:
// 1 for identical strings, 0 for completely different ones.
// Comparison is case-insensitive and whitespace-trimmed.
func Similarity(a, b string) float64 {
	a = strings.ToUpper(strings.TrimSpace(a))
	b = strings.ToUpper(strings.TrimSpace(b))
	if a == b {
		return 1
	}

	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 1
	}

	return float64(longer-Levenshtein(a, b)) / float64(longer)
}
