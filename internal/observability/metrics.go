package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AI outcomes recorded by the ticket lifecycle and the chat endpoint.
const (
	OutcomeReply     = "reply"
	OutcomeEscalated = "escalated"
	OutcomeFallback  = "fallback"
	OutcomeSkipped   = "skipped"
)

// Metrics holds the Prometheus collectors for the service. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	errors       *prometheus.CounterVec
	aiOutcomes   *prometheus.CounterVec
	rateLimited  *prometheus.CounterVec
	ticketEvents *prometheus.CounterVec
}

// NewMetrics registers collectors on a private registry, so tests can build as
// many instances as they like.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Requests that ended in a domain error, by error code.",
		}, []string{"method", "path", "code"}),
		aiOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_policy_outcomes_total",
			Help: "Escalation policy decisions by source and outcome.",
		}, []string{"source", "outcome"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"route"}),
		ticketEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticket_events_total",
			Help: "Domain events published by the ticket lifecycle.",
		}, []string{"type"}),
	}
	m.registry.MustRegister(
		m.requests, m.latency, m.errors, m.aiOutcomes, m.rateLimited, m.ticketEvents,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, path, code).Inc()
}

// RecordAIOutcome counts one policy decision.
func (m *Metrics) RecordAIOutcome(source, outcome string) {
	if m == nil {
		return
	}
	m.aiOutcomes.WithLabelValues(source, outcome).Inc()
}

// RecordRateLimited counts a rejected request.
func (m *Metrics) RecordRateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(route).Inc()
}

// RecordTicketEvent counts a published lifecycle event.
func (m *Metrics) RecordTicketEvent(eventType string) {
	if m == nil {
		return
	}
	m.ticketEvents.WithLabelValues(eventType).Inc()
}
