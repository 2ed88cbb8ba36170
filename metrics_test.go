package buildgate

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	metrics := &NoopMetrics{}

	metrics.IncCounter("buildgate_scan_violations_total", map[string]string{"kind": "secret_keyword"})
	metrics.ObserveHistogram("buildgate_scan_duration_seconds", 1.5, map[string]string{"outcome": "passed"})
	metrics.SetGauge("buildgate_tree_depth", 2.5, map[string]string{"root": "custom"})
}

func TestPrometheusMetrics(t *testing.T) {
	// Reset the default registry to avoid conflicts with other tests
	prometheus.DefaultRegisterer = prometheus.NewRegistry()

	metrics := NewPrometheusMetrics()
	promMetrics, ok := metrics.(*PrometheusMetrics)
	assert.True(t, ok)

	t.Run("IncCounter", func(t *testing.T) {
		counterName := "buildgate_verification_total"
		tags := map[string]string{"outcome": "verified", "code": "none"}

		metrics.IncCounter(counterName, tags)
		metrics.IncCounter(counterName, tags)

		counter, ok := promMetrics.counters[counterName]
		assert.True(t, ok, "counter should be registered on first use")

		metric := &dto.Metric{}
		err := counter.With(prometheus.Labels(tags)).(prometheus.Metric).Write(metric)
		assert.NoError(t, err)
		assert.Equal(t, float64(2), *metric.Counter.Value)
	})

	t.Run("ObserveHistogram", func(t *testing.T) {
		histName := "buildgate_scan_duration_seconds"
		tags := map[string]string{"outcome": "passed"}

		metrics.ObserveHistogram(histName, 2.5, tags)

		hist, ok := promMetrics.histograms[histName]
		assert.True(t, ok, "histogram should be registered on first use")
		assert.NotNil(t, hist)
	})

	t.Run("SetGauge", func(t *testing.T) {
		gaugeName := "buildgate_tree_depth"
		tags := map[string]string{"root": "custom"}
		value := 4.5

		metrics.SetGauge(gaugeName, value, tags)

		gauge, ok := promMetrics.gauges[gaugeName]
		assert.True(t, ok, "gauge should be registered on first use")

		metric := &dto.Metric{}
		err := gauge.With(prometheus.Labels(tags)).(prometheus.Metric).Write(metric)
		assert.NoError(t, err)
		assert.Equal(t, value, *metric.Gauge.Value)
	})
}

func TestKeys(t *testing.T) {
	testMap := map[string]string{
		"outcome": "verified",
		"code":    "none",
		"kind":    "secret_keyword",
	}

	// Collector label names come from the first call for a metric name, so
	// the helper must return them in a stable order.
	assert.Equal(t, []string{"code", "kind", "outcome"}, keys(testMap))
}
