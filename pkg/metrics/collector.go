// Package metrics exposes Prometheus instrumentation for the session
// service.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_operations_total",
			Help: "Total number of session operations labeled by operation and status",
		},
		[]string{"operation", "status"},
	)
	operationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "session_operation_duration_seconds",
			Help:    "Duration of session operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	phaseTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_phase_transitions_total",
			Help: "Total number of session phase transitions",
		},
		[]string{"from", "to"},
	)
	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of toasts raised labeled by kind and catalog key",
		},
		[]string{"kind", "key"},
	)
	activeSession = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_session",
			Help: "Whether a session is currently active (1) or not (0)",
		},
	)
	onboardingCompleted = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "onboarding_completed",
			Help: "Whether the active session has completed preference onboarding",
		},
	)
)

// RecordOperation increments operation counters and records duration.
func RecordOperation(operation, status string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	sessionOpsTotal.WithLabelValues(operation, status).Inc()
	operationDurationSeconds.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordPhaseTransition tracks session phase transitions.
func RecordPhaseTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	phaseTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordNotification counts a raised toast.
func RecordNotification(kind, key string) {
	if kind == "" {
		kind = "unknown"
	}
	if key == "" {
		key = "unknown"
	}

	notificationsTotal.WithLabelValues(kind, key).Inc()
}

// SessionSample is one observation of the session gauges.
type SessionSample struct {
	Authenticated       bool
	OnboardingCompleted bool
}

// SessionCollector periodically polls a sample function and updates the
// session gauges. The sampler keeps this package free of a dependency on
// the session manager.
type SessionCollector struct {
	sample func() SessionSample
}

// NewSessionCollector builds a collector around the provided sampler.
func NewSessionCollector(sample func() SessionSample) *SessionCollector {
	return &SessionCollector{sample: sample}
}

// Run samples every 10 seconds until ctx is cancelled.
func (c *SessionCollector) Run(ctx context.Context) {
	if c == nil || c.sample == nil {
		return
	}

	for {
		c.collect()

		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Second):
		}
	}
}

func (c *SessionCollector) collect() {
	if c == nil || c.sample == nil {
		return
	}

	sample := c.sample()

	if sample.Authenticated {
		activeSession.Set(1)
	} else {
		activeSession.Set(0)
	}

	if sample.OnboardingCompleted {
		onboardingCompleted.Set(1)
	} else {
		onboardingCompleted.Set(0)
	}
}
