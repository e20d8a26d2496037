// Package metrics exports chat and assistant-run metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter holds the FitMate collectors. A nil *Exporter is valid and
// records nothing, so callers never need to guard.
type Exporter struct {
	registry *prometheus.Registry

	chatRequests  *prometheus.CounterVec
	chatLatency   *prometheus.HistogramVec
	runPolls      *prometheus.CounterVec
	conversations prometheus.Gauge
	chatLogErrors prometheus.Counter
}

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}
}

// NewExporter creates and registers the collectors.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitmate",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total number of chat messages handled",
		},
		[]string{"agent", "status"},
	)

	e.chatLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fitmate",
			Subsystem: "chat",
			Name:      "latency_seconds",
			Help:      "Time from user message to formatted reply",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"agent"},
	)

	e.runPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitmate",
			Subsystem: "assistant",
			Name:      "run_polls_total",
			Help:      "Run status polls by observed status",
		},
		[]string{"status"},
	)

	e.conversations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fitmate",
			Subsystem: "chat",
			Name:      "conversations",
			Help:      "Conversations currently held in memory",
		},
	)

	e.chatLogErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fitmate",
			Subsystem: "chat",
			Name:      "log_errors_total",
			Help:      "Chat exchanges that could not be written to the chat log",
		},
	)

	registry.MustRegister(e.chatRequests, e.chatLatency, e.runPolls, e.conversations, e.chatLogErrors)
	return e
}

// RecordChat records one handled message.
func (e *Exporter) RecordChat(agent string, latency time.Duration, success bool) {
	if e == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	e.chatRequests.WithLabelValues(agent, status).Inc()
	e.chatLatency.WithLabelValues(agent).Observe(latency.Seconds())
}

// RecordRunPoll records one run status observation.
func (e *Exporter) RecordRunPoll(status string) {
	if e == nil {
		return
	}
	e.runPolls.WithLabelValues(status).Inc()
}

// SetConversations reports how many conversations are held.
func (e *Exporter) SetConversations(n int) {
	if e == nil {
		return
	}
	e.conversations.Set(float64(n))
}

// RecordChatLogError counts a failed chat log write.
func (e *Exporter) RecordChatLogError() {
	if e == nil {
		return
	}
	e.chatLogErrors.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	if e == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
