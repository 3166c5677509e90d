package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const binanceProvider = "binance"

// BinanceFeed prices asset X from the X<quote> pair of the Binance spot
// ticker. A whole batch costs one request.
type BinanceFeed struct {
	baseURL string
	quote   string
	client  *http.Client
}

func NewBinanceFeed(baseURL, quote string, timeout time.Duration) *BinanceFeed {
	if quote == "" {
		quote = "USDT"
	}
	return &BinanceFeed{
		baseURL: strings.TrimRight(baseURL, "/"),
		quote:   strings.ToUpper(quote),
		client:  &http.Client{Timeout: timeout},
	}
}

func (f *BinanceFeed) Quote() string {
	return f.quote
}

type binancePrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// FetchPrices requests every spot price once and picks the requested pairs.
func (f *BinanceFeed) FetchPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/api/v3/ticker/price", nil)
	if err != nil {
		return nil, &ProviderError{Provider: binanceProvider, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: binanceProvider, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ProviderError{
			Provider: binanceProvider,
			Err:      fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var tickers []binancePrice
	if err := json.NewDecoder(resp.Body).Decode(&tickers); err != nil {
		return nil, &ProviderError{Provider: binanceProvider, Err: fmt.Errorf("failed to parse prices: %w", err)}
	}

	want := wanted(symbols)
	prices := make(map[string]decimal.Decimal, len(want))
	for _, t := range tickers {
		asset, ok := strings.CutSuffix(t.Symbol, f.quote)
		if !ok {
			continue
		}
		if _, ok := want[asset]; !ok {
			continue
		}
		p, err := decimal.NewFromString(t.Price)
		if err != nil {
			log.Warnf("⚠️ Unreadable price %q for %s", t.Price, t.Symbol)
			continue
		}
		prices[asset] = p
	}

	log.Debugf("✅ Fetched %d of %d prices from binance", len(prices), len(symbols))
	return prices, nil
}
