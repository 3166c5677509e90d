package alert

import (
	"context"
	"sort"
	"sync"
	"time"

	"coinpaprika-price-alerts/internal/metrics"
	"coinpaprika-price-alerts/internal/types"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultInterval     = time.Minute
	DefaultFetchTimeout = 15 * time.Second
)

// DefaultEpsilon is the absolute distance from the target at which an alert
// fires.
var DefaultEpsilon = decimal.RequireFromString("0.01")

// PriceFeed returns current prices for a batch of asset symbols. Assets it
// has no price for are left out of the result.
type PriceFeed interface {
	FetchPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// NotificationSink delivers a fired alert. Delivery is best effort.
type NotificationSink interface {
	Fire(ctx context.Context, n types.Notification)
}

type MonitorConfig struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	Epsilon      decimal.Decimal
}

// CycleResult summarises one fetch-evaluate-fire pass.
type CycleResult struct {
	Watched        int
	Fired          []string
	Skipped        bool
	RemoveFailures int
	Remaining      int
}

// Monitor polls prices for the stored alerts and fires the ones whose asset
// trades within epsilon of the target.
type Monitor struct {
	store   *Store
	feed    PriceFeed
	sink    NotificationSink
	metrics *metrics.Metrics
	cfg     MonitorConfig

	// cycleMutex ensures only one pass evaluates alerts at a time
	cycleMutex sync.Mutex
}

// NewMonitor creates a Monitor. Zero config values fall back to the defaults;
// m may be nil.
func NewMonitor(store *Store, feed PriceFeed, sink NotificationSink, m *metrics.Metrics, cfg MonitorConfig) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if !cfg.Epsilon.IsPositive() {
		cfg.Epsilon = DefaultEpsilon
	}
	return &Monitor{
		store:   store,
		feed:    feed,
		sink:    sink,
		metrics: m,
		cfg:     cfg,
	}
}

// Matches reports whether current is within epsilon of target.
func Matches(current, target, epsilon decimal.Decimal) bool {
	return current.Sub(target).Abs().LessThan(epsilon)
}

// RunCycle performs a single pass. A failed price fetch skips the pass; the
// next scheduled cycle is the retry.
func (m *Monitor) RunCycle(ctx context.Context) (CycleResult, error) {
	m.cycleMutex.Lock()
	defer m.cycleMutex.Unlock()

	var result CycleResult
	m.metrics.ObserveCycle()

	log.Debug("🔄 Checking alerts...")

	alerts, err := m.store.Load(ctx)
	if err != nil {
		log.Errorf("❌ Failed to load alerts: %v", err)
		return result, err
	}
	result.Watched = len(alerts)

	if len(alerts) > 0 {
		symbols := make([]string, 0, len(alerts))
		for assetID := range alerts {
			symbols = append(symbols, assetID)
		}
		sort.Strings(symbols)

		prices, err := m.fetch(ctx, symbols)
		if err != nil {
			log.WithField("assets", len(symbols)).Errorf("❌ Failed to fetch prices, skipping cycle: %v", err)
			m.metrics.ObserveProviderError()
			result.Skipped = true
		} else {
			m.evaluate(ctx, symbols, alerts, prices, &result)
		}
	}

	remaining, err := m.store.Count(ctx)
	if err != nil {
		log.Errorf("❌ Failed to count alerts: %v", err)
		return result, err
	}
	result.Remaining = remaining
	m.metrics.SetActiveAlerts(remaining)

	log.WithFields(log.Fields{
		"watched":   result.Watched,
		"fired":     len(result.Fired),
		"remaining": result.Remaining,
	}).Debug("✅ Alert check completed.")

	return result, nil
}

func (m *Monitor) fetch(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, m.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	prices, err := m.feed.FetchPrices(fetchCtx, symbols)
	m.metrics.ObserveFetch(time.Since(start))
	return prices, err
}

func (m *Monitor) evaluate(ctx context.Context, symbols []string, alerts, prices map[string]decimal.Decimal, result *CycleResult) {
	for _, assetID := range symbols {
		target := alerts[assetID]
		current, ok := prices[assetID]
		if !ok {
			log.Debugf("⚠️ No price data found for asset: %s", assetID)
			continue
		}

		entry := log.WithFields(log.Fields{
			"asset":   assetID,
			"target":  target.String(),
			"current": current.String(),
		})
		entry.Debug("🔍 Checking price alert")

		if !Matches(current, target, m.cfg.Epsilon) {
			continue
		}

		m.sink.Fire(ctx, types.Notification{
			AssetID:      assetID,
			CurrentPrice: current,
			TargetPrice:  target,
			FiredAt:      time.Now().UTC(),
		})
		m.metrics.ObserveFired()
		result.Fired = append(result.Fired, assetID)
		entry.Info("🚨 Price alert triggered")

		// The notification is out; the claim must finish even if the run is
		// being stopped.
		removed, err := m.store.RemoveIf(context.WithoutCancel(ctx), assetID, target)
		if err != nil {
			entry.WithError(err).Error("❌ Alert fired but could not be removed, it may notify again")
			m.metrics.ObserveRemoveFailure()
			result.RemoveFailures++
			continue
		}
		if !removed {
			entry.Info("Alert changed while firing, keeping the new target")
		}
	}
}

// Run executes cycles until ctx is cancelled or idle reports that the monitor
// may stop because no alerts remain. The first cycle starts immediately.
func (m *Monitor) Run(ctx context.Context, idle func() bool) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		result, err := m.RunCycle(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil && result.Remaining == 0 && idle != nil && idle() {
			log.Info("💤 No alerts left, alert monitor going idle.")
			return nil
		}

		timer.Reset(m.cfg.Interval)
	}
}
