// Package metrics exposes Prometheus counters for downloader runs
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const pushJob = "traveltimes_downloader"

// RunMetrics counts what a run parsed and stored
type RunMetrics struct {
	registry *prometheus.Registry

	RecordsParsed prometheus.Counter
	RecordsStored prometheus.Counter
	RecordsFailed prometheus.Counter
	RunsFailed    prometheus.Counter
	ObservedAt    prometheus.Gauge
}

// NewRunMetrics registers the run metrics on a fresh registry
func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		RecordsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traveltimes_records_parsed_total",
			Help: "Total number of travel time rows extracted from the report.",
		}),
		RecordsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traveltimes_records_stored_total",
			Help: "Total number of travel times successfully stored.",
		}),
		RecordsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traveltimes_records_failed_total",
			Help: "Total number of travel times rejected by the store.",
		}),
		RunsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traveltimes_runs_failed_total",
			Help: "Total number of runs aborted before storing.",
		}),
		ObservedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "traveltimes_report_observed_at_seconds",
			Help: "Unix time of the last report processed.",
		}),
	}
	m.registry.MustRegister(m.RecordsParsed, m.RecordsStored, m.RecordsFailed, m.RunsFailed, m.ObservedAt)
	return m
}

// Registry returns the registry holding the run metrics
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push sends the metrics to a Prometheus Pushgateway
func (m *RunMetrics) Push(url string) error {
	if err := push.New(url, pushJob).Gatherer(m.registry).Push(); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
