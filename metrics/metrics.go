// Package metrics exports Prometheus collectors for the orchestrator, the
// test engine, agent validation and the HTTP server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/orchestrator"
	"github.com/leofalp/agentgraph/providers/ai"
	"github.com/leofalp/agentgraph/testengine"
)

const Namespace = "agentgraph"

// Metrics holds every collector. It implements orchestrator.Observer and
// testengine.Observer.
type Metrics struct {
	registry *prometheus.Registry

	ProviderAttempts *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	Completions      *prometheus.CounterVec
	CompletionTokens *prometheus.CounterVec
	CompletionCost   *prometheus.CounterVec
	ProvidersExhaust prometheus.Counter
	Tests            *prometheus.CounterVec
	TestDuration     *prometheus.HistogramVec
	Validations      *prometheus.CounterVec
	Runs             *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	HTTPInFlight     prometheus.Gauge
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ProviderAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "provider_attempts_total",
			Help:      "AI provider attempts by outcome and error kind",
		}, []string{"provider", "outcome", "kind"}),
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "provider_attempt_duration_seconds",
			Help:      "AI provider attempt duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider"}),
		Completions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "completions_total",
			Help:      "Completed orchestrator requests by serving provider",
		}, []string{"provider", "fallback"}),
		CompletionTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "completion_tokens_total",
			Help:      "Tokens consumed by successful completions",
		}, []string{"provider"}),
		CompletionCost: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "completion_cost_usd_total",
			Help:      "Estimated spend of successful completions in USD",
		}, []string{"provider"}),
		ProvidersExhaust: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "providers_exhausted_total",
			Help:      "Requests where every provider failed",
		}),
		Tests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "agent_tests_total",
			Help:      "Agent test executions by category and final status",
		}, []string{"category", "status"}),
		TestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "agent_test_duration_seconds",
			Help:      "Agent test duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 180},
		}, []string{"category"}),
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "agent_validations_total",
			Help:      "Agent validations by result",
		}, []string{"valid"}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "agent_runs_total",
			Help:      "Agent runtime executions by result",
		}, []string{"success"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "agent_run_duration_seconds",
			Help:      "Agent runtime execution duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path"}),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveAttempt(provider ai.ProviderID, _ string, duration time.Duration, err error) {
	outcome, kind := "success", ""
	if err != nil {
		outcome = "failure"
		kind = string(apperr.Handle(err, nil).Kind)
	}
	m.ProviderAttempts.WithLabelValues(string(provider), outcome, kind).Inc()
	m.ProviderLatency.WithLabelValues(string(provider)).Observe(duration.Seconds())
}

func (m *Metrics) ObserveCompletion(response *orchestrator.Response, fallbackUsed bool) {
	provider := string(response.Provider)
	m.Completions.WithLabelValues(provider, strconv.FormatBool(fallbackUsed)).Inc()
	m.CompletionTokens.WithLabelValues(provider).Add(float64(response.TokensUsed))
	m.CompletionCost.WithLabelValues(provider).Add(response.Cost.Amount)
}

func (m *Metrics) ObserveExhausted([]ai.ProviderID) {
	m.ProvidersExhaust.Inc()
}

func (m *Metrics) ObserveTest(category string, status testengine.Status, duration time.Duration) {
	if category == "" {
		category = "custom"
	}
	m.Tests.WithLabelValues(category, string(status)).Inc()
	m.TestDuration.WithLabelValues(category).Observe(duration.Seconds())
}

// ObserveValidation counts one agent validation.
func (m *Metrics) ObserveValidation(valid bool) {
	m.Validations.WithLabelValues(strconv.FormatBool(valid)).Inc()
}

// ObserveRun counts one runtime execution.
func (m *Metrics) ObserveRun(success bool, duration time.Duration) {
	m.Runs.WithLabelValues(strconv.FormatBool(success)).Inc()
	m.RunDuration.Observe(duration.Seconds())
}

// Middleware records request count, latency and in-flight requests. The
// path label is the matched chi route pattern, keeping cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPInFlight.Inc()
		defer m.HTTPInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
