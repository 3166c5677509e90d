package price

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const coinpaprikaProvider = "coinpaprika"

// CoinpaprikaFeed prices assets from the CoinPaprika tickers endpoint. A
// whole batch costs one request.
type CoinpaprikaFeed struct {
	client *coinpaprika.Client
	quote  string
}

// NewCoinpaprikaFeed creates a feed quoting prices in quote (USD when
// empty). apiProKey is optional.
func NewCoinpaprikaFeed(apiProKey, quote string, timeout time.Duration) *CoinpaprikaFeed {
	httpClient := &http.Client{Timeout: timeout}

	var client *coinpaprika.Client
	if apiProKey != "" {
		client = coinpaprika.NewClient(httpClient, coinpaprika.WithAPIKey(apiProKey))
	} else {
		client = coinpaprika.NewClient(httpClient)
	}

	if quote == "" {
		quote = "USD"
	}
	return &CoinpaprikaFeed{client: client, quote: strings.ToUpper(quote)}
}

func (f *CoinpaprikaFeed) Quote() string {
	return f.quote
}

type tickersResult struct {
	tickers []*coinpaprika.Ticker
	err     error
}

// FetchPrices lists all tickers once and picks the requested symbols.
func (f *CoinpaprikaFeed) FetchPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	// The client has no context support; the request is bounded by the
	// http.Client timeout and abandoned here when ctx ends first.
	ch := make(chan tickersResult, 1)
	go func() {
		tickers, err := f.client.Tickers.List(&coinpaprika.TickersOptions{Quotes: f.quote})
		ch <- tickersResult{tickers: tickers, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &ProviderError{Provider: coinpaprikaProvider, Err: ctx.Err()}
	case res := <-ch:
		if res.err != nil {
			return nil, &ProviderError{Provider: coinpaprikaProvider, Err: errors.Wrap(res.err, "could not list tickers")}
		}
		prices := pricesFromTickers(res.tickers, symbols, f.quote)
		log.Debugf("✅ Fetched %d of %d prices from coinpaprika", len(prices), len(symbols))
		return prices, nil
	}
}

// pricesFromTickers matches requested symbols against coin ids and ticker
// symbols. Tickers arrive sorted by rank, so the first symbol match wins.
func pricesFromTickers(tickers []*coinpaprika.Ticker, symbols []string, quote string) map[string]decimal.Decimal {
	want := wanted(symbols)
	prices := make(map[string]decimal.Decimal, len(want))

	for _, t := range tickers {
		if t == nil || t.Quotes == nil {
			continue
		}
		q, ok := t.Quotes[quote]
		if !ok || q.Price == nil {
			continue
		}
		p := decimal.NewFromFloat(*q.Price)

		if t.ID != nil {
			id := strings.ToUpper(*t.ID)
			if _, ok := want[id]; ok {
				prices[id] = p
			}
		}
		if t.Symbol != nil {
			sym := strings.ToUpper(*t.Symbol)
			if _, ok := want[sym]; ok {
				if _, seen := prices[sym]; !seen {
					prices[sym] = p
				}
			}
		}
	}
	return prices
}
