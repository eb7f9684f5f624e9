// takeoff/metrics.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "takeoff_runs_total",
			Help: "Single runs by kind (continued, aborted) and result (ok, error, cached)",
		},
		[]string{"kind", "result"},
	)
	runSteps = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "takeoff_run_steps",
		Help:    "Accepted integration steps per run",
		Buckets: prometheus.ExponentialBuckets(16, 2, 10),
	})
	runSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "takeoff_run_duration_seconds",
		Help:    "Wall clock time per run",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	alphaIterations = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "takeoff_alpha_search_iterations",
		Help:    "Runs needed by the alpha reduction search",
		Buckets: prometheus.LinearBuckets(1, 5, 10),
	})
	bflDiscarded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "takeoff_bfl_samples_discarded_total",
		Help: "Failure speed samples discarded by the balanced field solver",
	})
	lastDistance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "takeoff_last_distance_meters",
			Help: "Most recent computed distance by kind (aeo, far25, bfl)",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(runsTotal, runSteps, runSeconds, alphaIterations, bflDiscarded, lastDistance)
}

func runKind(aborted bool) string {
	if aborted {
		return "aborted"
	}
	return "continued"
}
