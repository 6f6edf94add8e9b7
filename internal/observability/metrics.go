package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus counters for the service.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
	errorsTotal     *prometheus.CounterVec
	loginsTotal     *prometheus.CounterVec
	noteEventsTotal *prometheus.CounterVec
}

// NewMetrics builds the collector and registers it on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notes_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_errors_total",
			Help: "Failed requests by error code.",
		}, []string{"code"}),
		loginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		noteEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_note_events_total",
			Help: "Note domain events by type.",
		}, []string{"type"}),
	}
	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.errorsTotal,
		m.loginsTotal,
		m.noteEventsTotal,
	)
	return m
}

// RecordRequest increments request counters.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(code).Inc()
}

// RecordLogin tracks login outcomes ("success" or "failure").
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.loginsTotal.WithLabelValues(outcome).Inc()
}

// RecordNoteEvent tracks published note events.
func (m *Metrics) RecordNoteEvent(eventType string) {
	if m == nil {
		return
	}
	m.noteEventsTotal.WithLabelValues(eventType).Inc()
}

// Handler exposes the registry for GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
