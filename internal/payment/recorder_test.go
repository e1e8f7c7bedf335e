package payment

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "declined", 255, "declined"},
		{"ascii", "abcdef", 3, "abc"},
		{"inside a rune", "carte refusée", 12, "carte refus"},
		{"on a rune boundary", "carte refusée", 13, "carte refusé"},
		{"multibyte only", "日本語", 4, "日"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}

	long := truncate(strings.Repeat("é", 200), 255)
	assert.True(t, utf8.ValidString(long))
	assert.Len(t, long, 254)
}
