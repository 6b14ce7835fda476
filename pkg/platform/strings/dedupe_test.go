package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "single source",
			input:    []string{"tesseract/original"},
			expected: []string{"tesseract/original"},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  tesseract/original  ", "zonal "},
			expected: []string{"tesseract/original", "zonal"},
		},
		{
			name:     "drops duplicates preserving order",
			input:    []string{"tesseract/original", "tesseract/sharpened", "tesseract/original", "zonal"},
			expected: []string{"tesseract/original", "tesseract/sharpened", "zonal"},
		},
		{
			name:     "drops empties",
			input:    []string{"zonal", "", "  ", "google-vision"},
			expected: []string{"zonal", "google-vision"},
		},
		{
			name:     "case is significant",
			input:    []string{"Zonal", "zonal"},
			expected: []string{"Zonal", "zonal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
