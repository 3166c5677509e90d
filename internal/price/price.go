package price

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Feed is a batched price source. Quote names the currency its prices are
// in.
type Feed interface {
	FetchPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
	Quote() string
}

// ProviderError is returned when a price request fails in transport or
// while decoding the response.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// wanted builds an upper-cased lookup set of the requested symbols.
func wanted(symbols []string) map[string]struct{} {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}
