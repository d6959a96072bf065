package notifications

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{
			name:     "short string unchanged",
			input:    "hello",
			limit:    120,
			expected: "hello",
		},
		{
			name:     "exact length unchanged",
			input:    "hello",
			limit:    5,
			expected: "hello",
		},
		{
			name:     "ascii cut at limit",
			input:    "hello world",
			limit:    5,
			expected: "hello...",
		},
		{
			name:     "multibyte rune not split",
			input:    "héllo", // é is two bytes, limit lands inside it
			limit:    2,
			expected: "h...",
		},
		{
			name:     "emoji not split",
			input:    "ab\U0001F600cd", // four byte rune starting at offset 2
			limit:    4,
			expected: "ab...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.limit)
			assert.Equal(t, tt.expected, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
