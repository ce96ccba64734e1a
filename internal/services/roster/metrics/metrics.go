// Package metrics holds the Prometheus collectors for the roster service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "raidroster"

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Metrics groups the roster counters. A nil *Metrics records nothing.
type Metrics struct {
	interactions *prometheus.CounterVec
	pushes       *prometheus.CounterVec
	fallbacks    prometheus.Counter
}

// New registers the roster collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		interactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_total",
			Help:      "inbound interactions handled, by action and outcome",
		}, []string{"action", "outcome"}),
		pushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projection_pushes_total",
			Help:      "projection pushes to the notification channel, by surface and outcome",
		}, []string{"surface", "outcome"}),
		fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projection_recreated_total",
			Help:      "stale message references replaced by a newly created message",
		}),
	}
}

// Interaction counts one handled interaction.
func (m *Metrics) Interaction(action, outcome string) {
	if m == nil {
		return
	}
	m.interactions.WithLabelValues(action, outcome).Inc()
}

// Push counts one surface push.
func (m *Metrics) Push(surface, outcome string) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(surface, outcome).Inc()
}

// Recreated counts one edit that fell back to create.
func (m *Metrics) Recreated() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}
