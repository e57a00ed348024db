package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the HTTP surface and the document renderer.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	renders         prometheus.Counter
	renderFailures  prometheus.Counter
	renderDuration  prometheus.Histogram
	renderPages     prometheus.Histogram
	cacheHits       prometheus.Counter
	truncated       prometheus.Counter
}

// NewMetrics initialises the registry and the base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotedesk_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quotedesk_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	renders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotedesk_renders_total",
		Help: "Quotation documents rendered, including cache hits.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotedesk_render_failures_total",
		Help: "Quotation renders that failed.",
	})
	renderDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "quotedesk_render_duration_seconds",
		Help:    "Time spent laying out and encoding a quotation.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
	pages := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "quotedesk_render_pages",
		Help:    "Pages per rendered quotation.",
		Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
	})
	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotedesk_render_cache_hits_total",
		Help: "Renders served from the artifact cache.",
	})
	truncated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotedesk_render_truncated_total",
		Help: "Renders where an oversized line item was clipped.",
	})
	registry.MustRegister(requests, duration, renders, failures, renderDuration, pages, hits, truncated)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		renders:         renders,
		renderFailures:  failures,
		renderDuration:  renderDuration,
		renderPages:     pages,
		cacheHits:       hits,
		truncated:       truncated,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveRender records one render attempt.
func (m *Metrics) ObserveRender(elapsed time.Duration, pages int, cached, truncated bool, err error) {
	if m == nil {
		return
	}
	m.renders.Inc()
	if err != nil {
		m.renderFailures.Inc()
		return
	}
	if cached {
		m.cacheHits.Inc()
		return
	}
	if truncated {
		m.truncated.Inc()
	}
	m.renderDuration.Observe(elapsed.Seconds())
	m.renderPages.Observe(float64(pages))
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
