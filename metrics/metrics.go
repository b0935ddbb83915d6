// Package metrics exposes Prometheus instrumentation for the debate
// engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's collectors. A nil *Metrics is valid and
// records nothing, so instrumentation stays optional.
type Metrics struct {
	registry *prometheus.Registry

	sessionsStarted   prometheus.Counter
	sessionsCompleted prometheus.Counter
	sessionsFailed    prometheus.Counter
	sessionDuration   prometheus.Histogram
	phaseDuration     *prometheus.HistogramVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		sessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "break",
			Name:      "sessions_started_total",
			Help:      "Number of debate sessions started.",
		}),
		sessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "break",
			Name:      "sessions_completed_total",
			Help:      "Number of debate sessions that reached judgment.",
		}),
		sessionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "break",
			Name:      "sessions_failed_total",
			Help:      "Number of debate sessions that ended in error.",
		}),
		sessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "break",
			Name:      "session_duration_seconds",
			Help:      "Wall-clock duration of completed debate sessions.",
			Buckets:   prometheus.ExponentialBuckets(5, 2, 8),
		}),
		phaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "break",
			Name:      "phase_duration_seconds",
			Help:      "Generation time per debate phase.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"phase"}),
	}
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SessionStarted counts a new debate session.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

// SessionCompleted counts a finished debate and its duration.
func (m *Metrics) SessionCompleted(d time.Duration) {
	if m == nil {
		return
	}
	m.sessionsCompleted.Inc()
	m.sessionDuration.Observe(d.Seconds())
}

// SessionFailed counts a debate that ended in error.
func (m *Metrics) SessionFailed() {
	if m == nil {
		return
	}
	m.sessionsFailed.Inc()
}

// PhaseObserved records the generation time of one debate phase.
func (m *Metrics) PhaseObserved(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}
