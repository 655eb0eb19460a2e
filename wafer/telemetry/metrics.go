// Package telemetry records run metrics of the batch pipeline in a private
// Prometheus registry and writes them in the text exposition format.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wafermap"

// Metrics holds the collectors of one pipeline run. It is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	wafers        prometheus.Counter
	degraded      *prometheus.CounterVec
	outliers      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	batchSize     prometheus.Gauge
}

// NewMetrics creates a Metrics with its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		wafers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wafers_processed_total",
			Help:      "Wafers that completed the per-wafer stages.",
		}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interpolations_degraded_total",
			Help:      "Interpolations that fell back, by effective method.",
		}, []string{"method"}),
		outliers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outliers_total",
			Help:      "Wafers flagged as outliers, by pattern label.",
		}, []string{"pattern"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of pipeline stages.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
		}, []string{"stage"}),
		batchSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Wafers in the last scored batch.",
		}),
	}
	m.registry.MustRegister(m.wafers, m.degraded, m.outliers, m.stageDuration, m.batchSize)
	return m
}

// WaferProcessed counts one wafer; degraded interpolations are counted by method.
func (m *Metrics) WaferProcessed(degraded bool, method string) {
	m.wafers.Inc()
	if degraded {
		m.degraded.WithLabelValues(method).Inc()
	}
}

// Outlier counts one outlier wafer under its pattern label.
func (m *Metrics) Outlier(pattern string) {
	m.outliers.WithLabelValues(pattern).Inc()
}

// BatchScored records the size of a scored batch.
func (m *Metrics) BatchScored(n int) {
	m.batchSize.Set(float64(n))
}

// ObserveStage records the duration of a stage that started at start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Registry exposes the underlying registry for callers that serve or gather it.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metrics to path in the Prometheus text
// format, atomically, for pickup by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
