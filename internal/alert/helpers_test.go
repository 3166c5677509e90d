package alert

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"coinpaprika-price-alerts/internal/types"
	"github.com/shopspring/decimal"
)

var errBackendDown = errors.New("backend down")

// memBackend is an in-memory Backend with switchable failures.
type memBackend struct {
	mu         sync.Mutex
	data       map[string]types.Entry
	failAll    bool
	failDelete bool
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string]types.Entry)}
}

func (b *memBackend) All(ctx context.Context) ([]types.Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.failAll {
		return nil, errBackendDown
	}
	entries := make([]types.Entry, 0, len(b.data))
	for _, e := range b.data {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

func (b *memBackend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll {
		return errBackendDown
	}
	b.data[key] = types.Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	return nil
}

func (b *memBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll || b.failDelete {
		return errBackendDown
	}
	delete(b.data, key)
	return nil
}

func (b *memBackend) DeleteIf(ctx context.Context, key, value string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if b.failAll || b.failDelete {
		return false, errBackendDown
	}
	if e, ok := b.data[key]; ok && e.Value == value {
		delete(b.data, key)
		return true, nil
	}
	return false, nil
}

func (b *memBackend) setFailDelete(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failDelete = fail
}

// fakeFeed answers from a queue of scripted responses; the last one repeats.
type fakeFeed struct {
	mu        sync.Mutex
	responses []feedResponse
	calls     [][]string
}

type feedResponse struct {
	prices map[string]string
	err    error
}

func (f *fakeFeed) push(prices map[string]string, err error) *fakeFeed {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, feedResponse{prices: prices, err: err})
	return f
}

func (f *fakeFeed) FetchPrices(_ context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string(nil), symbols...))
	if len(f.responses) == 0 {
		return map[string]decimal.Decimal{}, nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	if resp.err != nil {
		return nil, resp.err
	}
	prices := make(map[string]decimal.Decimal, len(resp.prices))
	for k, v := range resp.prices {
		prices[k] = decimal.RequireFromString(v)
	}
	return prices, nil
}

func (f *fakeFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// recordingSink keeps every notification it receives.
type recordingSink struct {
	mu     sync.Mutex
	fired  []types.Notification
	onFire func(types.Notification)
}

func (s *recordingSink) Fire(_ context.Context, n types.Notification) {
	s.mu.Lock()
	s.fired = append(s.fired, n)
	onFire := s.onFire
	s.mu.Unlock()

	if onFire != nil {
		onFire(n)
	}
}

func (s *recordingSink) notifications() []types.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Notification(nil), s.fired...)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
