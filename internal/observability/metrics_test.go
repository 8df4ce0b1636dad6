package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.EvaluationSaved("manual")
	m.EvaluationSaved("manual")
	m.BillingEvent("invoice.paid", "applied")
	m.ObserveAPI("/api/session", "GET", 200, 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.evaluations.WithLabelValues("manual")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.billingEvents.WithLabelValues("invoice.paid", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("/api/session", "GET", "200")))
}

func TestMetricsHandlerExposesSeries(t *testing.T) {
	m := NewMetrics()
	m.Checkout("professional", "created")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `edges_checkouts_total{plan="professional",result="created"} 1`))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.EvaluationSaved("manual")
	m.ObserveAPI("", "GET", 500, time.Second)
	m.IncInflight()
}
