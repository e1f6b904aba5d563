// Package metrics holds the Prometheus metrics for setup runs and alert
// deliveries.
//
// Metrics are registered with the default registry on InitMetrics and are
// no-ops until then, so one-shot CLI commands pay nothing for them.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	setupRunsTotal *prometheus.CounterVec
	setupDuration  prometheus.Histogram
	alertsSent     *prometheus.CounterVec

	metricsOnce       sync.Once
	metricsRegistered bool
)

// Recorder records setup and alert metrics.
type Recorder struct{}

// NewRecorder creates a Recorder. Recording is a no-op until InitMetrics runs.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// InitMetrics registers all metrics. Safe to call more than once.
func InitMetrics() {
	metricsOnce.Do(func() {
		setupRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ogsetup_setup_runs_total",
				Help: "Total number of setup runs by final state",
			},
			[]string{"state"},
		)

		setupDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ogsetup_setup_duration_seconds",
				Help:    "Duration of setup runs in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		)

		alertsSent = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ogsetup_alerts_sent_total",
				Help: "Total number of alert deliveries to Opsgenie by outcome",
			},
			[]string{"status"},
		)

		metricsRegistered = true
	})
}

// RecordSetupRun records a finished setup run.
func (r *Recorder) RecordSetupRun(state string, durationSeconds float64) {
	if !metricsRegistered {
		return
	}

	if setupRunsTotal != nil {
		setupRunsTotal.WithLabelValues(state).Inc()
	}
	if setupDuration != nil {
		setupDuration.Observe(durationSeconds)
	}
}

// RecordAlert records an alert delivery outcome ("sent" or "failed").
func (r *Recorder) RecordAlert(status string) {
	if !metricsRegistered || alertsSent == nil {
		return
	}
	alertsSent.WithLabelValues(status).Inc()
}

// GetSetupRunsTotal returns the setup run counter for testing.
func GetSetupRunsTotal() *prometheus.CounterVec {
	return setupRunsTotal
}

// GetAlertsSent returns the alert counter for testing.
func GetAlertsSent() *prometheus.CounterVec {
	return alertsSent
}

// IsMetricsRegistered returns whether metrics have been initialized.
func IsMetricsRegistered() bool {
	return metricsRegistered
}
