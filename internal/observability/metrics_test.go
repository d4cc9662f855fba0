package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/tickets/:id", "GET", 200, 5*time.Millisecond)
	m.RecordRequest("/tickets/:id", "GET", 200, 7*time.Millisecond)
	m.RecordError("/tickets/:id", "GET", "NOT_FOUND")
	m.RecordAIOutcome("create", OutcomeFallback)
	m.RecordRateLimited("/ai/chat")
	m.RecordTicketEvent("ticket_created")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/tickets/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("GET", "/tickets/:id", "NOT_FOUND")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aiOutcomes.WithLabelValues("create", OutcomeFallback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited.WithLabelValues("/ai/chat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticketEvents.WithLabelValues("ticket_created")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordAIOutcome("create", OutcomeReply)
		m.RecordRateLimited("/ai/chat")
		m.RecordTicketEvent("x")
	})
	assert.Nil(t, m.Registry())
}

func TestTwoInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}
