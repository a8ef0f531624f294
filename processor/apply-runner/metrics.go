package applyrunner

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts run outcomes for the /metrics endpoint.
type Metrics struct {
	RunsStarted   prometheus.Counter
	RunsApplied   prometheus.Counter
	RunsNeedsInfo prometheus.Counter
	RunsFailed    prometheus.Counter
	TasksDropped  prometheus.Counter
}

// NewMetrics creates and registers the run counters. Pass
// prometheus.DefaultRegisterer outside tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "applyflow",
			Name:      "runs_started_total",
			Help:      "Application runs dispatched from the task queue.",
		}),
		RunsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "applyflow",
			Name:      "runs_applied_total",
			Help:      "Runs that ended with the application submitted.",
		}),
		RunsNeedsInfo: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "applyflow",
			Name:      "runs_needs_info_total",
			Help:      "Runs halted waiting on applicant answers.",
		}),
		RunsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "applyflow",
			Name:      "runs_failed_total",
			Help:      "Runs that ended in failure.",
		}),
		TasksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "applyflow",
			Name:      "tasks_dropped_total",
			Help:      "Queued tasks discarded as unparseable or stale.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RunsStarted, m.RunsApplied, m.RunsNeedsInfo,
			m.RunsFailed, m.TasksDropped)
	}
	return m
}
