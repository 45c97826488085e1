// Package metrics exposes Prometheus collectors for pawgraph operations.
//
// Every method is safe to call on a nil receiver, which is how callers run
// with metrics disabled.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pawgraph"

// Interactions holds the collectors for the interaction façade.
type Interactions struct {
	toggles  *prometheus.CounterVec   // By relation and resulting state (on/off)
	comments prometheus.Counter       // Comments created
	rejected *prometheus.CounterVec   // Inputs rejected as no-ops, by reason
	errors   *prometheus.CounterVec   // Storage failures, by operation
	duration *prometheus.HistogramVec // By operation
}

// NewInteractions creates the interaction collectors and registers them with reg.
// A nil reg disables metrics and returns nil.
func NewInteractions(reg prometheus.Registerer) (*Interactions, error) {
	if reg == nil {
		return nil, nil // Metrics disabled
	}

	m := &Interactions{
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "interactions",
			Name:      "toggles_total",
			Help:      "Total number of relation changes",
		}, []string{"relation", "state"}),

		comments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "interactions",
			Name:      "comments_total",
			Help:      "Total number of comments created",
		}),

		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "interactions",
			Name:      "rejected_total",
			Help:      "Total number of mutations ignored because of invalid input",
		}, []string{"reason"}), // reason: no_user, empty_content

		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "interactions",
			Name:      "errors_total",
			Help:      "Total number of failed interaction operations",
		}, []string{"operation"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "interactions",
			Name:      "duration_seconds",
			Help:      "Interaction operation duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"operation"}),
	}

	var err error
	if m.toggles, err = register(reg, m.toggles); err != nil {
		return nil, err
	}
	if m.comments, err = register(reg, m.comments); err != nil {
		return nil, err
	}
	if m.rejected, err = register(reg, m.rejected); err != nil {
		return nil, err
	}
	if m.errors, err = register(reg, m.errors); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg. When an identical collector is already registered
// the existing one is returned, so several stores can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

// Toggled records a relation change.
func (m *Interactions) Toggled(relation string, active bool) {
	if m == nil {
		return
	}
	state := "off"
	if active {
		state = "on"
	}
	m.toggles.WithLabelValues(relation, state).Inc()
}

// Commented records a created comment.
func (m *Interactions) Commented() {
	if m == nil {
		return
	}
	m.comments.Inc()
}

// Rejected records an ignored mutation.
func (m *Interactions) Rejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

// Failed records a failed operation.
func (m *Interactions) Failed(operation string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(operation).Inc()
}

// Observe records how long operation took since start.
func (m *Interactions) Observe(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Reconcile holds the collectors for the counter reconciliation job.
type Reconcile struct {
	checked  *prometheus.CounterVec // By entity (post/comment)
	repaired *prometheus.CounterVec // By entity
}

// NewReconcile creates the reconcile collectors and registers them with reg.
// A nil reg disables metrics and returns nil.
func NewReconcile(reg prometheus.Registerer) (*Reconcile, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Reconcile{
		checked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "checked_total",
			Help:      "Total number of records whose counters were checked",
		}, []string{"entity"}),

		repaired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "repaired_total",
			Help:      "Total number of records whose counters were rewritten",
		}, []string{"entity"}),
	}

	var err error
	if m.checked, err = register(reg, m.checked); err != nil {
		return nil, err
	}
	if m.repaired, err = register(reg, m.repaired); err != nil {
		return nil, err
	}
	return m, nil
}

// Checked records a record whose counters were compared.
func (m *Reconcile) Checked(entity string, repaired bool) {
	if m == nil {
		return
	}
	m.checked.WithLabelValues(entity).Inc()
	if repaired {
		m.repaired.WithLabelValues(entity).Inc()
	}
}
