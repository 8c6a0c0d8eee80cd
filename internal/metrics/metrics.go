// Package metrics holds the Prometheus collectors of an analysis run.
//
// A Recorder registers its collectors on the registerer it is given, so
// tests and parallel runs can use their own prometheus.Registry. A nil
// *Recorder is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "floodpath"

// Trace results used as the "result" label of paths_total.
const (
	ResultFinalized = "finalized"
	ResultConverged = "converged"
)

// Recorder groups the collectors updated by one analysis.
type Recorder struct {
	candidates    *prometheus.CounterVec
	paths         *prometheus.CounterVec
	routeLength   prometheus.Histogram
	criticalPaths prometheus.Gauge
	runDuration   prometheus.Histogram
}

// New creates a Recorder and registers its collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		// candidates counts candidates by status (accepted, rejected, skipped).
		candidates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "candidates_total",
			Help:      "Candidates seen by the analysis, by status",
		}, []string{"status"}),

		// paths counts traces by how they stopped.
		paths: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "traces_total",
			Help:      "Traces committed to the registry, by result",
		}, []string{"result"}),

		routeLength: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "route_cells",
			Help:      "Number of cells on each walked route",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),

		criticalPaths: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "critical_paths",
			Help:      "Critical paths in the registry after the last run",
		}),

		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "run_duration_seconds",
			Help:      "Wall time of an analysis run",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
	}
}

// Candidate counts one candidate with the given status.
func (r *Recorder) Candidate(status string) {
	if r == nil {
		return
	}
	r.candidates.WithLabelValues(status).Inc()
}

// Route observes the length of a walked route.
func (r *Recorder) Route(cells int) {
	if r == nil {
		return
	}
	r.routeLength.Observe(float64(cells))
}

// Trace counts a committed trace.
func (r *Recorder) Trace(result string) {
	if r == nil {
		return
	}
	r.paths.WithLabelValues(result).Inc()
}

// Finish records the final critical count and the run duration.
func (r *Recorder) Finish(critical int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.criticalPaths.Set(float64(critical))
	r.runDuration.Observe(elapsed.Seconds())
}
