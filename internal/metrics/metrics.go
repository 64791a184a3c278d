// Package metrics counts the outcomes of import runs and exports them in
// the Prometheus text format, typically for a node exporter textfile
// collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/reconciler"
)

// Metrics holds the collectors of one process. It implements
// reconciler.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	Datasets    *prometheus.CounterVec
	Runs        *prometheus.CounterVec
	RunDuration *prometheus.GaugeVec
	LastRun     prometheus.Gauge
}

// New registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		Datasets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ckansync_datasets_total",
			Help: "Datasets processed, by organization and outcome",
		}, []string{"organization", "outcome"}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ckansync_runs_total",
			Help: "Organization imports, by organization and status",
		}, []string{"organization", "status"}),
		RunDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ckansync_run_duration_seconds",
			Help: "Duration of the last import of an organization",
		}, []string{"organization"}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ckansync_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Record implements reconciler.Recorder.
func (m *Metrics) Record(organization string, outcome reconciler.Outcome) {
	m.Datasets.WithLabelValues(organization, string(outcome)).Inc()
}

// ObserveRun records the end of one organization's import.
func (m *Metrics) ObserveRun(organization string, result *reconciler.Result, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.Runs.WithLabelValues(organization, status).Inc()
	if result != nil {
		m.RunDuration.WithLabelValues(organization).Set(result.Duration().Seconds())
	}
	m.LastRun.Set(float64(time.Now().Unix()))
}

// WriteFile writes every collected metric to path in the text exposition
// format. The file is replaced atomically.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
