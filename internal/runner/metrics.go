// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package runner

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// =============================================================================
// PROMETHEUS METRICS
// =============================================================================

// Metrics holds the runner's collectors. They are registered on the
// Registerer passed to NewMetrics; a nil Registerer leaves them unregistered.
type Metrics struct {
	// trialDuration measures single timed trials.
	// Labels: group, run, option
	trialDuration *prometheus.HistogramVec

	// trialFailures counts trials that returned an error.
	// Labels: group, run, option
	trialFailures *prometheus.CounterVec

	// sweeps counts finished sweeps.
	// Labels: group, status (completed, canceled)
	sweeps *prometheus.CounterVec

	// inFlight is 1 while a sweep executes.
	inFlight prometheus.Gauge
}

// NewMetrics creates the runner collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		trialDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "opbench",
			Name:      "trial_duration_seconds",
			Help:      "Duration of timed benchmark trials in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"group", "run", "option"}),

		trialFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opbench",
			Name:      "trial_failures_total",
			Help:      "Total benchmark trials that returned an error",
		}, []string{"group", "run", "option"}),

		sweeps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opbench",
			Name:      "sweeps_total",
			Help:      "Total finished sweeps by outcome",
		}, []string{"group", "status"}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "opbench",
			Name:      "sweeps_in_flight",
			Help:      "Number of sweeps currently executing",
		}),
	}
}

// Handler serves the collectors gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
