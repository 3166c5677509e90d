package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

const (
	namespace = "coinpaprika"
	subsystem = "price_alerts"
)

// Metrics of the alert monitor. All methods are safe on a nil receiver so
// components can run without instrumentation.
type Metrics struct {
	CyclesRun      prometheus.Counter
	AlertsFired    prometheus.Counter
	ProviderErrors prometheus.Counter
	RemoveFailures prometheus.Counter
	NotifyFailures *prometheus.CounterVec
	ActiveAlerts   prometheus.Gauge
	MonitorRunning prometheus.Gauge
	FetchDuration  prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycles_run",
			Help:      "The total number of alert check cycles",
		}),
		AlertsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alerts_fired",
			Help:      "The total number of fired price alerts",
		}),
		ProviderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "provider_errors",
			Help:      "The total number of cycles skipped because the price feed failed",
		}),
		RemoveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "remove_failures",
			Help:      "The total number of fired alerts that could not be removed",
		}),
		NotifyFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notify_failures",
				Help:      "The total number of failed notification deliveries per sender",
			},
			[]string{"sender"},
		),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_alerts",
			Help:      "The number of alerts currently monitored",
		}),
		MonitorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "monitor_running",
			Help:      "1 while the alert monitor loop is running",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of batched price requests",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.CyclesRun,
		m.AlertsFired,
		m.ProviderErrors,
		m.RemoveFailures,
		m.NotifyFailures,
		m.ActiveAlerts,
		m.MonitorRunning,
		m.FetchDuration,
	)

	return m
}

func (m *Metrics) ObserveCycle() {
	if m != nil {
		m.CyclesRun.Inc()
	}
}

func (m *Metrics) ObserveFired() {
	if m != nil {
		m.AlertsFired.Inc()
	}
}

func (m *Metrics) ObserveProviderError() {
	if m != nil {
		m.ProviderErrors.Inc()
	}
}

func (m *Metrics) ObserveRemoveFailure() {
	if m != nil {
		m.RemoveFailures.Inc()
	}
}

func (m *Metrics) ObserveNotifyFailure(sender string) {
	if m != nil {
		m.NotifyFailures.WithLabelValues(sender).Inc()
	}
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m != nil {
		m.FetchDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) SetActiveAlerts(n int) {
	if m != nil {
		m.ActiveAlerts.Set(float64(n))
	}
}

func (m *Metrics) SetRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.MonitorRunning.Set(1)
	} else {
		m.MonitorRunning.Set(0)
	}
}

// GetMetricValue reads the current value of a counter or gauge.
func GetMetricValue(metric prometheus.Collector) float64 {
	var metricValue float64
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		metricValue = metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		metricValue = metricProto.Gauge.GetValue()
	}
	return metricValue
}
