package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests     *prometheus.CounterVec
	apiLatency      *prometheus.HistogramVec
	apiInflight     prometheus.Gauge
	evaluations     *prometheus.CounterVec
	saveFailures    *prometheus.CounterVec
	limitWarnings   *prometheus.CounterVec
	billingEvents   *prometheus.CounterVec
	checkouts       *prometheus.CounterVec
	usageSnapshots  *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
	chartRenderings *prometheus.CounterVec
}

// NewMetrics registers every collector on a private registry so tests can
// build as many as they like.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "edges_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edges_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "edges_http_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "edges_evaluations_saved_total",
			Help: "Evaluations persisted, by source.",
		}, []string{"source"}),
		saveFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "edges_evaluation_save_failures_total",
			Help: "Evaluation saves that did not persist, by reason.",
		}, []string{"reason"}),
		limitWarnings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "edges_usage_limit_warnings_total",
			Help: "Saves that left the user approaching or at the monthly limit.",
		}, []string{"status", "tier"}),
		billingEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "edges_billing_events_total",
			Help: "Payment processor webhook events by type and outcome.",
		}, []string{"type", "outcome"}),
		checkouts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "edges_checkouts_total",
			Help: "Checkout requests by plan and result.",
		}, []string{"plan", "result"}),
		usageSnapshots: f.NewCounterVec(prometheus.CounterOpts{
			Name: "edges_usage_snapshots_total",
			Help: "Usage snapshot reads by source (cache, db, unknown).",
		}, []string{"source"}),
		sessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "edges_sessions_active",
			Help: "Evaluation sessions held in memory.",
		}),
		chartRenderings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "edges_chart_renderings_total",
			Help: "Radar chart renderings by format.",
		}, []string{"format"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) IncInflight() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) DecInflight() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) EvaluationSaved(source string) {
	if m != nil {
		m.evaluations.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) EvaluationSaveFailed(reason string) {
	if m != nil {
		m.saveFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) LimitWarning(status, tier string) {
	if m != nil {
		m.limitWarnings.WithLabelValues(status, tier).Inc()
	}
}

func (m *Metrics) BillingEvent(eventType, outcome string) {
	if m != nil {
		m.billingEvents.WithLabelValues(eventType, outcome).Inc()
	}
}

func (m *Metrics) Checkout(plan, result string) {
	if m != nil {
		m.checkouts.WithLabelValues(plan, result).Inc()
	}
}

func (m *Metrics) UsageSnapshot(source string) {
	if m != nil {
		m.usageSnapshots.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) SetSessionsActive(n int) {
	if m != nil {
		m.sessionsActive.Set(float64(n))
	}
}

func (m *Metrics) ChartRendered(format string) {
	if m != nil {
		m.chartRenderings.WithLabelValues(format).Inc()
	}
}
