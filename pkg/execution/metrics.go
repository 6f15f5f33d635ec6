package execution

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelstreet/virtualpytest-sub017/pkg/navgraph"
)

// Metrics collects traversal-level counters and timings. All record methods
// are nil-safe so the engine can run without a registry.
type Metrics struct {
	traversals    *prometheus.CounterVec
	steps         *prometheus.CounterVec
	actionRetries *prometheus.CounterVec
	actionSeconds *prometheus.HistogramVec
	verifications *prometheus.CounterVec
}

// NewMetrics builds the metric set and registers it on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		traversals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navigation_traversals_total",
				Help: "Traversals by final status.",
			},
			[]string{"graph", "status"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navigation_steps_total",
				Help: "Executed steps by outcome.",
			},
			[]string{"graph", "status"},
		),
		actionRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navigation_action_attempts_total",
				Help: "Action attempts by kind and result.",
			},
			[]string{"kind", "result"},
		),
		actionSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "navigation_action_duration_seconds",
				Help:    "Wall time of a single action including retries.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navigation_verifications_total",
				Help: "Verification checks by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
	}
	reg.MustRegister(m.traversals, m.steps, m.actionRetries, m.actionSeconds, m.verifications)
	return m
}

func (m *Metrics) recordTraversal(graph string, status Status) {
	if m == nil {
		return
	}
	m.traversals.WithLabelValues(graph, string(status)).Inc()
}

func (m *Metrics) recordStep(graph string, status Status) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(graph, string(status)).Inc()
}

func (m *Metrics) recordAction(kind navgraph.ActionKind, out ActionOutcome) {
	if m == nil {
		return
	}
	result := "ok"
	if !out.Success {
		result = "error"
	}
	m.actionRetries.WithLabelValues(string(kind), result).Add(float64(len(out.Attempts)))
	m.actionSeconds.WithLabelValues(string(kind)).Observe(float64(out.DurationMs) / 1000)
}

func (m *Metrics) recordVerification(kind string, passed bool) {
	if m == nil {
		return
	}
	outcome := "fail"
	if passed {
		outcome = "pass"
	}
	m.verifications.WithLabelValues(kind, outcome).Inc()
}
