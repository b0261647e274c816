package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "escapes and quotes",
			input:    `a\nb\tc"d"`,
			expected: "a\nb\tcd",
		},
		{
			name:     "quoted serialized string",
			input:    `"Arsenal - Chelsea\t2:1\nLiverpool - Everton\t0:0"`,
			expected: "Arsenal - Chelsea\t2:1\nLiverpool - Everton\t0:0",
		},
		{
			name:     "plain text untouched",
			input:    "Manchester City 2023/2024",
			expected: "Manchester City 2023/2024",
		},
		{
			name:     "real newlines kept",
			input:    "line1\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "other escapes kept",
			input:    `C:\\results\r`,
			expected: `C:\\results\r`,
		},
		{
			name:     "only quotes",
			input:    `""`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}
