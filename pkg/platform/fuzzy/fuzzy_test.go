package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "OKIYA", "OKIYA", 0},
		{"empty left", "", "ABC", 3},
		{"empty right", "ABC", "", 3},
		{"single substitution", "GEORGE", "GEORGF", 1},
		{"ocr confusion pair", "IDKEN", "IDK5N", 1},
		{"disjoint", "ABC", "XYZ", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b))
		})
	}
}

func TestSimilarity(t *testing.T) {
	t.Run("identical strings score 1", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("ADISA", "ADISA"))
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("  okiya ", "OKIYA"))
	})

	t.Run("both empty score 1", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("", "  "))
	})

	t.Run("disjoint strings score 0", func(t *testing.T) {
		assert.Equal(t, 0.0, Similarity("ABC", "XYZ"))
	})

	t.Run("near miss scores high", func(t *testing.T) {
		sim := Similarity("GEORGE", "GEORGF")
		assert.InDelta(t, 5.0/6.0, sim, 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.Equal(t, Similarity("OKIYA GEORGE", "OKIYA GE0RGE"), Similarity("OKIYA GE0RGE", "OKIYA GEORGE"))
	})
}
