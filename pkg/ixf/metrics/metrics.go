// Package metrics exposes Prometheus counters and histograms for one
// reconciliation run: decisions taken, changes applied, notifications
// dispatched, ticket failures. The base InitRegistry/IsEnabled/GetRegistry
// trio is this package's own addition — the teacher's pkg/metrics calls
// this convention (metrics.IsEnabled(), metrics.GetRegistry(),
// promauto.With(reg)) from its prometheus subpackage, but the file that
// defines them was not part of the retrieved pack, so it is authored here
// from the observed calling convention.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mu       sync.Mutex
	registry *prometheus.Registry
	enabled  bool

	decisions     *prometheus.CounterVec
	applies       *prometheus.CounterVec
	applyDuration *prometheus.HistogramVec
	notifications *prometheus.CounterVec
	ticketErrors  prometheus.Counter
	feedErrors    *prometheus.CounterVec
	conflicts     prometheus.Counter
)

// InitRegistry enables metrics collection against a fresh registry.
// Calling it more than once resets the registered collectors, matching
// the teacher's one-registry-per-process usage from cmd/ entrypoints.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	registry = prometheus.NewRegistry()
	enabled = true

	decisions = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ixfrecon_decisions_total",
			Help: "Total number of decisions produced by the decision engine, by action",
		},
		[]string{"action"}, // add, modify, delete, noop
	)
	applies = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ixfrecon_applies_total",
			Help: "Total number of applier outcomes, by action and result",
		},
		[]string{"action", "result"}, // result: applied, conflicted, proposed
	)
	applyDuration = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ixfrecon_apply_duration_seconds",
			Help:    "Duration of one reconciliation run's apply phase",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"ixlan_id"},
	)
	notifications = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ixfrecon_notifications_total",
			Help: "Total number of notifications dispatched, by type and channel",
		},
		[]string{"type", "channel"}, // channel: email, ticket
	)
	ticketErrors = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ixfrecon_ticket_errors_total",
			Help: "Total number of ticket create/update calls that failed",
		},
	)
	feedErrors = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ixfrecon_feed_errors_total",
			Help: "Total number of feed fetch/parse failures, by ixlan",
		},
		[]string{"ixlan_id"},
	)
	conflicts = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ixfrecon_conflicts_total",
			Help: "Total number of proposals left in the conflicted state",
		},
	)

	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// GetRegistry returns the active registry, or nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	return registry
}

// RecordDecision records one decision engine output.
func RecordDecision(action string) {
	if !IsEnabled() {
		return
	}
	decisions.WithLabelValues(action).Inc()
}

// RecordApply records one applier outcome.
func RecordApply(action, result string) {
	if !IsEnabled() {
		return
	}
	applies.WithLabelValues(action, result).Inc()
}

// ObserveApplyDuration records how long one run's apply phase took.
func ObserveApplyDuration(ixlanID string, seconds float64) {
	if !IsEnabled() {
		return
	}
	applyDuration.WithLabelValues(ixlanID).Observe(seconds)
}

// RecordNotification records one dispatched notification.
func RecordNotification(notifyType, channel string) {
	if !IsEnabled() {
		return
	}
	notifications.WithLabelValues(notifyType, channel).Inc()
}

// RecordTicketError records a failed ticket create/update call.
func RecordTicketError() {
	if !IsEnabled() {
		return
	}
	ticketErrors.Inc()
}

// RecordFeedError records a fetch/parse failure for one IXLAN.
func RecordFeedError(ixlanID string) {
	if !IsEnabled() {
		return
	}
	feedErrors.WithLabelValues(ixlanID).Inc()
}

// RecordConflict records one proposal left conflicted.
func RecordConflict() {
	if !IsEnabled() {
		return
	}
	conflicts.Inc()
}
