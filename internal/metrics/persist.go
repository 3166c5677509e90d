package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

// Store persists counter values; database.MetricStore implements it.
type Store interface {
	SaveMetric(metricName string, value float64) error
	GetMetric(metricName string) (float64, error)
	SaveMetricWithLabels(metricName, labelKey, labelValue string, value float64) error
	GetMetricsWithLabels(metricName string) (map[string]map[string]float64, error)
}

func (m *Metrics) counters() map[string]prometheus.Counter {
	return map[string]prometheus.Counter{
		"cycles_run":      m.CyclesRun,
		"alerts_fired":    m.AlertsFired,
		"provider_errors": m.ProviderErrors,
		"remove_failures": m.RemoveFailures,
	}
}

// Load adds previously saved counter values so totals survive restarts.
// Call it once, right after New.
func (m *Metrics) Load(s Store) {
	for name, counter := range m.counters() {
		value, err := s.GetMetric(name)
		if err != nil {
			log.Errorf("Failed to load metric %s: %v", name, err)
			continue
		}
		counter.Add(value)
	}

	labeled, err := s.GetMetricsWithLabels("notify_failures")
	if err != nil {
		log.Errorf("Failed to load metric notify_failures: %v", err)
		return
	}
	for _, values := range labeled {
		for sender, value := range values {
			m.NotifyFailures.WithLabelValues(sender).Add(value)
		}
	}

	log.Debug("Metrics loaded from database.")
}

// Save writes the current counter values.
func (m *Metrics) Save(s Store) {
	for name, counter := range m.counters() {
		if err := s.SaveMetric(name, GetMetricValue(counter)); err != nil {
			log.Errorf("Failed to save metric %s: %v", name, err)
		}
	}

	metricChan := make(chan prometheus.Metric, 1)
	go func() {
		m.NotifyFailures.Collect(metricChan)
		close(metricChan)
	}()

	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Errorf("Failed to read notify_failures metric: %v", err)
			continue
		}
		var sender string
		for _, label := range metricProto.Label {
			if label.GetName() == "sender" {
				sender = label.GetValue()
			}
		}
		if err := s.SaveMetricWithLabels("notify_failures", "sender", sender, metricProto.Counter.GetValue()); err != nil {
			log.Errorf("Failed to save metric notify_failures: %v", err)
		}
	}

	log.Debug("Metrics saved to database.")
}
