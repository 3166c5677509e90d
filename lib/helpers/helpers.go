package helpers

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func EscapeMarkdownV2(text string) string {
	charactersToEscape := []string{"\\", ".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// FormatPrice formats a price with US thousand separators. Large prices are
// shown with cents, small ones with enough decimals to stay meaningful.
func FormatPrice(price decimal.Decimal) string {
	decimals := 6

	abs := price.Abs()
	if abs.GreaterThanOrEqual(decimal.NewFromFloat(1.2)) {
		decimals = 2
	} else if abs.IsPositive() && abs.LessThan(decimal.NewFromFloat(0.00001)) {
		decimals = 8
	}

	p := message.NewPrinter(language.English)
	return p.Sprintf("%.*f", decimals, price.InexactFloat64())
}

func FormatPriceUS(price decimal.Decimal, escapeMarkdown bool) string {
	formatted := FormatPrice(price)
	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

// FormatAge renders t relative to now, e.g. "3 minutes ago".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
