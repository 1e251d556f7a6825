package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op, so callers
// never check whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	ingestCommits *prometheus.CounterVec
	ingestRuns    *prometheus.CounterVec
	ingestLatency prometheus.Histogram

	tutorials       *prometheus.CounterVec
	tutorialLatency prometheus.Histogram

	rateLimited prometheus.Counter
	storeUp     *prometheus.GaugeVec

	vectorOps       *prometheus.CounterVec
	vectorOpLatency *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	buckets := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onb_api_requests_total", Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "onb_api_request_duration_seconds", Help: "API request latency in seconds.", Buckets: buckets,
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onb_api_inflight_requests", Help: "In-flight API requests.",
		}),
		ingestCommits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onb_ingest_commits_total", Help: "Commits processed during ingestion by outcome.",
		}, []string{"outcome"}),
		ingestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onb_ingest_runs_total", Help: "Ingestion and refresh runs by kind/status.",
		}, []string{"kind", "status"}),
		ingestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "onb_ingest_duration_seconds", Help: "Ingestion run duration.", Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		tutorials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onb_tutorials_generated_total", Help: "Tutorials generated by source/status.",
		}, []string{"source", "status"}),
		tutorialLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "onb_tutorial_duration_seconds", Help: "Tutorial generation duration.", Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onb_rate_limited_total", Help: "Requests rejected by the rate limiter.",
		}),
		storeUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "onb_store_up", Help: "Last health probe result per store (1 up, 0 down).",
		}, []string{"store"}),
		vectorOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onb_vector_store_operations_total", Help: "Vector store calls by provider/operation/status.",
		}, []string{"provider", "operation", "status"}),
		vectorOpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "onb_vector_store_operation_duration_seconds", Help: "Vector store call latency.", Buckets: buckets,
		}, []string{"provider", "operation"}),
	}
	reg.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.ingestCommits, m.ingestRuns, m.ingestLatency,
		m.tutorials, m.tutorialLatency,
		m.rateLimited, m.storeUp,
		m.vectorOps, m.vectorOpLatency,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	code := strconv.Itoa(status)
	m.apiRequests.WithLabelValues(method, route, code).Inc()
	m.apiLatency.WithLabelValues(method, route, code).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveIngest records one ingestion or refresh run. kind is "ingest" or
// "refresh".
func (m *Metrics) ObserveIngest(kind string, ok bool, processed, failed int, dur time.Duration) {
	if m == nil {
		return
	}
	m.ingestRuns.WithLabelValues(kind, statusLabel(ok)).Inc()
	m.ingestCommits.WithLabelValues("ok").Add(float64(processed))
	m.ingestCommits.WithLabelValues("error").Add(float64(failed))
	m.ingestLatency.Observe(dur.Seconds())
}

func (m *Metrics) ObserveTutorial(source string, ok bool, dur time.Duration) {
	if m == nil {
		return
	}
	if source == "" {
		source = "none"
	}
	m.tutorials.WithLabelValues(source, statusLabel(ok)).Inc()
	m.tutorialLatency.Observe(dur.Seconds())
}

func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) SetStoreUp(store string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.storeUp.WithLabelValues(store).Set(v)
}

func (m *Metrics) ObserveVectorOp(provider, operation string, ok bool, dur time.Duration) {
	if m == nil {
		return
	}
	m.vectorOps.WithLabelValues(provider, operation, statusLabel(ok)).Inc()
	m.vectorOpLatency.WithLabelValues(provider, operation).Observe(dur.Seconds())
}

func statusLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
