// Package metrics defines the prometheus collectors the build orchestrator
// reports stage outcomes and durations through.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles the orchestrator's collectors. A nil *Registry is valid:
// every method becomes a no-op, so callers that don't care about metrics
// (most tests) don't need to register anything.
type Registry struct {
	StageRuns     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
}

// NewRegistry builds a Registry and registers its collectors with reg. Pass
// prometheus.NewRegistry() for an isolated registry (tests), or
// prometheus.DefaultRegisterer for the process-wide one (cmd/rpmbuilder).
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		StageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rpmbuilder",
			Subsystem: "build",
			Name:      "stage_runs_total",
			Help:      "Count of build stage invocations by stage and outcome.",
		}, []string{"stage", "outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rpmbuilder",
			Subsystem: "build",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each build stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	if reg != nil {
		reg.MustRegister(r.StageRuns, r.StageDuration)
	}
	return r
}

// ObserveStage records one stage's outcome and duration in seconds. r may be
// nil.
func (r *Registry) ObserveStage(stage, outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.StageRuns.WithLabelValues(stage, outcome).Inc()
	r.StageDuration.WithLabelValues(stage).Observe(seconds)
}
