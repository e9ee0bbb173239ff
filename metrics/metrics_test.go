package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/core/cost"
	"github.com/leofalp/agentgraph/orchestrator"
	"github.com/leofalp/agentgraph/providers/ai"
	"github.com/leofalp/agentgraph/testengine"
)

var (
	_ orchestrator.Observer = (*Metrics)(nil)
	_ testengine.Observer   = (*Metrics)(nil)
)

func TestObserveAttempt(t *testing.T) {
	m := New()

	m.ObserveAttempt(ai.OpenAI, "gpt-4o-mini", 200*time.Millisecond, nil)
	m.ObserveAttempt(ai.OpenAI, "gpt-4o-mini", time.Second, apperr.AIQuotaExceeded("openai", errors.New("429")))
	m.ObserveAttempt(ai.Anthropic, "claude-3-haiku", time.Second, errors.New("connection refused"))

	tests := []struct {
		provider, outcome, kind string
		want                    float64
	}{
		{"openai", "success", "", 1},
		{"openai", "failure", string(apperr.KindAIQuotaExceeded), 1},
		{"anthropic", "failure", string(apperr.KindNetwork), 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.ProviderAttempts.WithLabelValues(tt.provider, tt.outcome, tt.kind))
		if got != tt.want {
			t.Errorf("attempts{%s,%s,%s} = %v, want %v", tt.provider, tt.outcome, tt.kind, got, tt.want)
		}
	}
	if n := testutil.CollectAndCount(m.ProviderLatency); n != 2 {
		t.Errorf("latency series = %d, want 2", n)
	}
}

func TestObserveCompletion(t *testing.T) {
	m := New()

	m.ObserveCompletion(&orchestrator.Response{
		Provider:   ai.Google,
		TokensUsed: 150,
		Cost:       cost.Estimate{Amount: 0.002, Currency: "USD"},
	}, true)
	m.ObserveExhausted([]ai.ProviderID{ai.OpenAI})

	if got := testutil.ToFloat64(m.Completions.WithLabelValues("google", "true")); got != 1 {
		t.Errorf("completions = %v", got)
	}
	if got := testutil.ToFloat64(m.CompletionTokens.WithLabelValues("google")); got != 150 {
		t.Errorf("tokens = %v", got)
	}
	if got := testutil.ToFloat64(m.CompletionCost.WithLabelValues("google")); got != 0.002 {
		t.Errorf("cost = %v", got)
	}
	if got := testutil.ToFloat64(m.ProvidersExhaust); got != 1 {
		t.Errorf("exhausted = %v", got)
	}
}

func TestObserveTestAndValidation(t *testing.T) {
	m := New()

	m.ObserveTest("", testengine.StatusCompleted, time.Second)
	m.ObserveTest("hr-legal", testengine.StatusFailed, time.Second)
	m.ObserveValidation(true)
	m.ObserveValidation(false)
	m.ObserveValidation(false)
	m.ObserveRun(true, time.Second)

	if got := testutil.ToFloat64(m.Tests.WithLabelValues("custom", "completed")); got != 1 {
		t.Errorf("custom tests = %v", got)
	}
	if got := testutil.ToFloat64(m.Tests.WithLabelValues("hr-legal", "failed")); got != 1 {
		t.Errorf("hr-legal tests = %v", got)
	}
	if got := testutil.ToFloat64(m.Validations.WithLabelValues("false")); got != 2 {
		t.Errorf("invalid validations = %v", got)
	}
	if got := testutil.ToFloat64(m.Runs.WithLabelValues("true")); got != 1 {
		t.Errorf("runs = %v", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/v1/tests/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	srv := httptest.NewServer(r)
	defer srv.Close()

	for _, id := range []string{"a", "b"} {
		resp, err := http.Get(srv.URL + "/v1/tests/" + id)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	}

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/v1/tests/{id}", "404")); got != 2 {
		t.Errorf("requests = %v, want 2 under the route pattern", got)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "agentgraph_http_requests_total") {
		t.Error("exposition is missing agentgraph_http_requests_total")
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("exposition is missing Go collector metrics")
	}
}
