// Package metrics records the outcome of a run in the Prometheus textfile
// format, for node_exporter's textfile collector or a CI artifact.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "portalfetch"

// Manager owns the registry and the run metrics.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	lastRunSuccess   prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
	lastRunDuration  prometheus.Gauge
	stageDuration    *prometheus.GaugeVec
	rows             *prometheus.GaugeVec
	runInfo          *prometheus.GaugeVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry sets a custom Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// NewManager creates and registers the run metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{namespace: defaultNamespace}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.lastRunSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "last_run_success",
		Help:      "1 if the last run produced the output file, 0 otherwise.",
	})
	m.lastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished.",
	})
	m.lastRunDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "last_run_duration_seconds",
		Help:      "Wall time of the last run.",
	})
	m.stageDuration = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "stage_duration_seconds",
		Help:      "Wall time of each stage in the last run.",
	}, []string{"stage"})
	m.rows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "rows",
		Help:      "Rows read from the artifact, written to the output and dropped as empty.",
	}, []string{"kind"})
	m.runInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "last_run_info",
		Help:      "Identifies the last run; the value is always 1.",
	}, []string{"run_id", "stage"})

	m.registry.MustRegister(
		m.lastRunSuccess,
		m.lastRunTimestamp,
		m.lastRunDuration,
		m.stageDuration,
		m.rows,
		m.runInfo,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// ObserveStage records a finished stage.
func (m *Manager) ObserveStage(stage string, took time.Duration) {
	m.stageDuration.WithLabelValues(stage).Set(took.Seconds())
}

// RecordRows records row counts for the normalize stage.
func (m *Manager) RecordRows(read, written, dropped int) {
	m.rows.WithLabelValues("read").Set(float64(read))
	m.rows.WithLabelValues("written").Set(float64(written))
	m.rows.WithLabelValues("dropped").Set(float64(dropped))
}

// RecordRun records the final outcome of a run.
func (m *Manager) RecordRun(runID, stage string, success bool, took time.Duration, finished time.Time) {
	if success {
		m.lastRunSuccess.Set(1)
	} else {
		m.lastRunSuccess.Set(0)
	}
	m.lastRunDuration.Set(took.Seconds())
	m.lastRunTimestamp.Set(float64(finished.Unix()))
	m.runInfo.Reset()
	m.runInfo.WithLabelValues(runID, stage).Set(1)
}

// WriteTextfile writes all metrics to path, creating its directory.
func (m *Manager) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("error writing metrics textfile: %w", err)
	}
	return nil
}
