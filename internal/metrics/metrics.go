// Package metrics exposes Prometheus collectors for the HTTP server, the
// highlighter and upstream calls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the application collectors. Create one per registry.
type Recorder struct {
	gatherer prometheus.Gatherer

	requests        *prometheus.CounterVec
	responseTime    *prometheus.HistogramVec
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	highlightSpans  *prometheus.CounterVec
	errors          *prometheus.CounterVec
}

// NewRecorder registers the collectors with reg. A nil reg uses a fresh
// registry, which keeps tests independent of the global default.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &Recorder{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modboard_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		responseTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modboard_http_response_time_seconds",
			Help:    "HTTP response time in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path", "status"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modboard_upstream_calls_total",
			Help: "Calls to the moderation backend by api and outcome.",
		}, []string{"api", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modboard_upstream_response_time_seconds",
			Help:    "Moderation backend response time in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"api"}),
		highlightSpans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modboard_highlight_spans_total",
			Help: "Highlighted term occurrences by category.",
		}, []string{"category"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modboard_error_total",
			Help: "Errors by component and type.",
		}, []string{"service", "type"}),
	}
	reg.MustRegister(r.requests, r.responseTime, r.upstreamCalls, r.upstreamLatency, r.highlightSpans, r.errors)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// Middleware counts and times requests, labelled by chi route pattern so ids
// do not explode cardinality.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		path := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)
		r.requests.WithLabelValues(req.Method, path, code).Inc()
		r.responseTime.WithLabelValues(req.Method, path, code).Observe(time.Since(start).Seconds())
	})
}

// ObserveUpstreamCall records one backend call.
func (r *Recorder) ObserveUpstreamCall(api string, status int, elapsed time.Duration) {
	outcome := "success"
	if status < 200 || status >= 400 {
		outcome = "error"
	}
	r.upstreamCalls.WithLabelValues(api, outcome).Inc()
	r.upstreamLatency.WithLabelValues(api).Observe(elapsed.Seconds())
}

// RecordHighlight counts n spans in category.
func (r *Recorder) RecordHighlight(category string, n int) {
	r.highlightSpans.WithLabelValues(category).Add(float64(n))
}

// RecordError counts an error of errType in service.
func (r *Recorder) RecordError(service, errType string) {
	r.errors.WithLabelValues(service, errType).Inc()
}
