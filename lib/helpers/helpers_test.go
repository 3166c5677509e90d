package helpers

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"50000", "50,000.00"},
		{"3000.5", "3,000.50"},
		{"1.5", "1.50"},
		{"0.5", "0.500000"},
		{"0.000001", "0.00000100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPrice(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `BTC \(50,000\.00\)`, EscapeMarkdownV2("BTC (50,000.00)"))
	assert.Equal(t, `a\-b\.c\!`, EscapeMarkdownV2("a-b.c!"))
	assert.Equal(t, `\\x`, EscapeMarkdownV2(`\x`))
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "-", FormatAge(time.Time{}))
	assert.Equal(t, "3 minutes ago", FormatAge(time.Now().Add(-3*time.Minute)))
}
