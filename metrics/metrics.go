package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors of the service.
type Metrics struct {
	Registry            *prometheus.Registry
	AnalysesTotal       *prometheus.CounterVec
	PageFetchesTotal    *prometheus.CounterVec
	PageFetchDuration   prometheus.Histogram
	SearchRequestsTotal *prometheus.CounterVec
	LLMRequestsTotal    *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	analyses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_analyses_total",
			Help: "Total analysis runs by outcome.",
		},
		[]string{"outcome"},
	)
	fetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_page_fetches_total",
			Help: "Total page fetches by result kind.",
		},
		[]string{"result"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refresh_page_fetch_duration_seconds",
			Help:    "Latency of page fetches.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
	)
	searches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_search_requests_total",
			Help: "Total web search requests by backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)
	llm := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_llm_requests_total",
			Help: "Total language model requests by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(analyses, fetches, fetchDuration, searches, llm, httpRequests, httpDuration)

	return &Metrics{
		Registry:            registry,
		AnalysesTotal:       analyses,
		PageFetchesTotal:    fetches,
		PageFetchDuration:   fetchDuration,
		SearchRequestsTotal: searches,
		LLMRequestsTotal:    llm,
		HTTPRequestsTotal:   httpRequests,
		HTTPRequestDuration: httpDuration,
	}
}

// IncAnalysis counts a finished analysis run.
func (m *Metrics) IncAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records a page fetch and its latency.
func (m *Metrics) ObserveFetch(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.PageFetchesTotal.WithLabelValues(result).Inc()
	m.PageFetchDuration.Observe(d.Seconds())
}

// IncSearch counts a search backend call.
func (m *Metrics) IncSearch(backend, outcome string) {
	if m == nil {
		return
	}
	m.SearchRequestsTotal.WithLabelValues(backend, outcome).Inc()
}

// IncLLM counts a language model call.
func (m *Metrics) IncLLM(kind, outcome string) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveHTTP records a served HTTP request.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
