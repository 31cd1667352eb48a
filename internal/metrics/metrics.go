// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the server's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ActiveLobbies    prometheus.Gauge
	ActiveMatches    prometheus.Gauge
	ConnectedSockets prometheus.Gauge
	MatchesFinished  prometheus.Counter
	IntentsReceived  *prometheus.CounterVec
	IntentLatency    prometheus.Histogram
	StoreFailures    *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. Passing nil uses a private registry.
func New(namespace string, reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		ActiveLobbies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_lobbies",
			Help:      "Number of lobbies held in memory",
		}),
		ActiveMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_matches",
			Help:      "Number of matches held in memory",
		}),
		ConnectedSockets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_sockets",
			Help:      "Number of open websocket connections",
		}),
		MatchesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_finished_total",
			Help:      "Matches that reached the end screen",
		}),
		IntentsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_received_total",
			Help:      "Player intents received, by type and outcome",
		}, []string{"type", "outcome"}),
		IntentLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "intent_latency_seconds",
			Help:      "Time spent handling one intent",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		StoreFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_failures_total",
			Help:      "Failed persistence calls, by operation",
		}, []string{"op"}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.ActiveLobbies,
		m.ActiveMatches,
		m.ConnectedSockets,
		m.MatchesFinished,
		m.IntentsReceived,
		m.IntentLatency,
		m.StoreFailures,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) LobbyOpened() {
	if m != nil {
		m.ActiveLobbies.Inc()
	}
}

func (m *Metrics) LobbyClosed() {
	if m != nil {
		m.ActiveLobbies.Dec()
	}
}

func (m *Metrics) MatchStarted() {
	if m != nil {
		m.ActiveMatches.Inc()
	}
}

// MatchEnded counts a finished match. The gauge drops later, at cleanup.
func (m *Metrics) MatchEnded() {
	if m != nil {
		m.MatchesFinished.Inc()
	}
}

func (m *Metrics) MatchRemoved() {
	if m != nil {
		m.ActiveMatches.Dec()
	}
}

func (m *Metrics) SocketOpened() {
	if m != nil {
		m.ConnectedSockets.Inc()
	}
}

func (m *Metrics) SocketClosed() {
	if m != nil {
		m.ConnectedSockets.Dec()
	}
}

// Intent records one handled intent.
func (m *Metrics) Intent(kind string, err error, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	m.IntentsReceived.WithLabelValues(kind, outcome).Inc()
	m.IntentLatency.Observe(took.Seconds())
}

func (m *Metrics) StoreFailure(op string) {
	if m != nil {
		m.StoreFailures.WithLabelValues(op).Inc()
	}
}
