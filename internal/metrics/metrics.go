package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mikey/cekfakta-ai/internal/core"
)

const namespace = "cekfakta"

// Recorder holds the Prometheus collectors of the service.
// It implements core.MetricsRecorder.
type Recorder struct {
	registry        *prometheus.Registry
	classifications *prometheus.CounterVec
	classifyLatency *prometheus.HistogramVec
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with its own registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classifications by outcome and risk category.",
		}, []string{"outcome", "category"}),
		classifyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classification_duration_seconds",
			Help:      "Time spent classifying one text.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}, []string{"outcome"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_calls_total",
			Help:      "Calls to external AI services by result.",
		}, []string{"service", "result"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_call_duration_seconds",
			Help:      "Latency of calls to external AI services.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		}, []string{"service"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.classifications,
		r.classifyLatency,
		r.upstreamCalls,
		r.upstreamLatency,
		r.httpRequests,
		r.httpLatency,
	)

	return r
}

// ObserveClassification records the outcome of one Classify call
func (r *Recorder) ObserveClassification(outcome string, category core.RiskCategory, elapsed time.Duration) {
	r.classifications.WithLabelValues(outcome, string(category)).Inc()
	r.classifyLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveUpstreamCall records one attempt against an external service
func (r *Recorder) ObserveUpstreamCall(service string, err error, elapsed time.Duration) {
	r.upstreamCalls.WithLabelValues(service, upstreamResult(err)).Inc()
	r.upstreamLatency.WithLabelValues(service).Observe(elapsed.Seconds())
}

func upstreamResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrUpstreamFormat):
		return "format_error"
	default:
		return "unavailable"
	}
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Middleware records request counts and latency labelled by chi route pattern
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		r.httpRequests.WithLabelValues(route, req.Method, strconv.Itoa(status)).Inc()
		r.httpLatency.WithLabelValues(route, req.Method).Observe(time.Since(start).Seconds())
	})
}
