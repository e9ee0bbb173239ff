package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/cache"
	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/core/overview"
	"github.com/leofalp/agentgraph/orchestrator"
	"github.com/leofalp/agentgraph/providers/ai"
	"github.com/leofalp/agentgraph/runtime"
	"github.com/leofalp/agentgraph/simulate"
	"github.com/leofalp/agentgraph/strategy"
	"github.com/leofalp/agentgraph/synth"
)

// agentRequest carries an agent plus optional test data or runtime input.
type agentRequest struct {
	Agent    *agent.Agent   `json:"agent"`
	TestData map[string]any `json:"testData,omitempty"`
	Input    map[string]any `json:"input,omitempty"`
}

func (s *Server) decodeAgent(w http.ResponseWriter, r *http.Request) (*agentRequest, error) {
	var req agentRequest
	if err := decode(w, r, &req); err != nil {
		return nil, err
	}
	if req.Agent == nil {
		return nil, apperr.MissingField("agent")
	}
	return &req, nil
}

func (s *Server) validateAgent(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeAgent(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result := s.engine.ValidateRealTime(req.Agent)
	if s.metrics != nil {
		s.metrics.ObserveValidation(result.IsValid)
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) agentStrategy(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeAgent(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, strategy.DetectAgentType(req.Agent))
}

func (s *Server) simulateAgent(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeAgent(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	validation := s.engine.ValidateRealTime(req.Agent)
	if !validation.IsValid {
		issue := validation.Errors[0]
		s.writeError(w, r, apperr.Validation(issue.Type, issue.Message,
			apperr.WithUserMessage(issue.Message),
			apperr.WithSuggestedAction("Corrija a estrutura do agente antes de simular."),
		))
		return
	}

	testData := req.TestData
	if testData == nil {
		testData = synth.ForAgent(req.Agent)
	}

	output, err := simulate.Simulate(r.Context(), req.Agent, testData, validation.Strategy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, output)
}

func (s *Server) testAgent(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeAgent(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	execution, err := s.engine.TestAgent(r.Context(), req.Agent, req.TestData)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, execution)
}

func (s *Server) testStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	execution, ok := s.engine.Status(r.Context(), id)
	if !ok {
		s.writeError(w, r, errNotFound("execução de teste "+id))
		return
	}
	writeJSON(w, r, http.StatusOK, execution)
}

func (s *Server) runningTests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"executions": s.engine.Running()})
}

type traceView struct {
	NodeID   string         `json:"nodeId"`
	NodeType agent.NodeType `json:"nodeType"`
	Label    string         `json:"label"`
	Duration time.Duration  `json:"duration"`
	Skipped  bool           `json:"skipped,omitempty"`
	Failed   bool           `json:"failed,omitempty"`
}

// runResponse is runtime.Result without technical error text.
type runResponse struct {
	ID       string                    `json:"executionId"`
	AgentID  string                    `json:"agentId"`
	Success  bool                      `json:"success"`
	Output   any                       `json:"output,omitempty"`
	Outputs  map[string]map[string]any `json:"nodeResults"`
	Trace    []traceView               `json:"trace"`
	Usage    overview.Summary          `json:"usage"`
	Duration time.Duration             `json:"executionTime"`
	Error    *errorBody                `json:"error,omitempty"`
}

func newRunResponse(result *runtime.Result) runResponse {
	resp := runResponse{
		ID:       result.ID,
		AgentID:  result.AgentID,
		Success:  result.Success,
		Output:   result.Final,
		Outputs:  result.Outputs,
		Trace:    make([]traceView, 0, len(result.Trace)),
		Usage:    result.Usage,
		Duration: result.Duration,
	}
	for _, t := range result.Trace {
		resp.Trace = append(resp.Trace, traceView{
			NodeID:   t.NodeID,
			NodeType: t.NodeType,
			Label:    t.Label,
			Duration: t.Duration,
			Skipped:  t.Skipped,
			Failed:   t.Error != "",
		})
	}
	if result.Error != nil {
		body := bodyFor(result.Error)
		resp.Error = &body
	}
	return resp
}

func (s *Server) runAgent(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeAgent(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := withUser(r)
	result, err := s.executor.Execute(ctx, req.Agent, req.Input)
	if s.metrics != nil && result != nil {
		s.metrics.ObserveRun(result.Success, result.Duration)
	}
	if result == nil {
		s.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Error != nil {
		status = apperr.HTTPStatus(result.Error.Kind)
		s.logger.WarnContext(ctx, "agent run failed",
			slog.String("execution_id", result.ID),
			slog.String("kind", string(result.Error.Kind)),
			slog.String("error", result.Error.TechnicalMessage),
		)
	}
	writeJSON(w, r, status, newRunResponse(result))
}

type completionRequest struct {
	Provider        string  `json:"provider"`
	Prompt          string  `json:"prompt"`
	Model           string  `json:"model,omitempty"`
	Temperature     float32 `json:"temperature,omitempty"`
	MaxTokens       int     `json:"maxTokens,omitempty"`
	SystemPrompt    string  `json:"systemPrompt,omitempty"`
	DisableFallback bool    `json:"disableFallback,omitempty"`
}

func (s *Server) completion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.writeError(w, r, apperr.MissingField("prompt"))
		return
	}

	var preferred ai.ProviderID
	if req.Provider != "" {
		id, ok := ai.ParseProviderID(req.Provider)
		if !ok {
			s.writeError(w, r, apperr.Validation("provider", "unknown provider "+req.Provider,
				apperr.WithUserMessage("Provedor de IA desconhecido: "+req.Provider+"."),
			))
			return
		}
		preferred = id
	}

	response, err := s.orchestrator.GenerateCompletion(withUser(r), preferred, req.Prompt, req.Model, orchestrator.Options{
		Temperature:     req.Temperature,
		MaxTokens:       req.MaxTokens,
		SystemPrompt:    req.SystemPrompt,
		DisableFallback: req.DisableFallback,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response)
}

type providerStatus struct {
	ID           ai.ProviderID `json:"id"`
	Available    bool          `json:"available"`
	DefaultModel string        `json:"defaultModel"`
	Reachable    *bool         `json:"reachable,omitempty"`
}

// providers lists every provider in fallback order. With ?ping=true each
// available provider is pinged with a short completion.
func (s *Server) providers(w http.ResponseWriter, r *http.Request) {
	ping := r.URL.Query().Get("ping") == "true"

	order := s.orchestrator.FallbackOrder()
	statuses := make([]providerStatus, 0, len(order))
	for _, id := range order {
		status := providerStatus{
			ID:           id,
			Available:    s.orchestrator.IsAvailable(id),
			DefaultModel: orchestrator.DefaultModel(id),
		}
		if ping && status.Available {
			reachable := s.orchestrator.TestProvider(r.Context(), id)
			status.Reachable = &reachable
		}
		statuses = append(statuses, status)
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"providers":     statuses,
		"fallbackOrder": order,
	})
}

func (s *Server) cacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cache.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, apperr.New(apperr.KindDatabase, err.Error(), apperr.WithCause(err)))
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

func withUser(r *http.Request) context.Context {
	if user := strings.TrimSpace(r.Header.Get(UserHeader)); user != "" {
		return cache.WithUser(r.Context(), user)
	}
	return r.Context()
}
