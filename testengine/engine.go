package testengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/simulate"
	"github.com/leofalp/agentgraph/store"
	"github.com/leofalp/agentgraph/strategy"
	"github.com/leofalp/agentgraph/synth"
	"github.com/leofalp/agentgraph/validate"
)

// Status of a test execution.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimeout   Status = "timeout"
)

// Execution is one test run of an agent.
type Execution struct {
	ID        string            `json:"executionId"`
	AgentID   string            `json:"agentId"`
	Status    Status            `json:"status"`
	Strategy  strategy.Strategy `json:"strategy"`
	TestData  map[string]any    `json:"testData"`
	StartTime time.Time         `json:"startTime"`
	EndTime   *time.Time        `json:"endTime,omitempty"`
	Results   *Results          `json:"results,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Results is the outcome of a finished execution.
type Results struct {
	Success           bool              `json:"success"`
	Duration          time.Duration     `json:"executionTime"`
	ValidationResults ValidationSummary `json:"validationResults"`
	Output            *simulate.Output  `json:"output,omitempty"`
	Errors            []validate.Issue  `json:"errors,omitempty"`
	Warnings          []string          `json:"warnings"`
	Recommendations   []string          `json:"recommendations"`
}

// ValidationSummary reports which stages passed.
type ValidationSummary struct {
	Structure        bool             `json:"structure"`
	DataFlow         bool             `json:"dataFlow"`
	NodeValidations  []NodeValidation `json:"nodeValidations"`
	CategorySpecific bool             `json:"categorySpecific"`
	APICalls         int              `json:"apiCalls"`
}

// NodeValidation is the per-node outcome reported in Results.
type NodeValidation struct {
	NodeID   string         `json:"nodeId"`
	NodeType agent.NodeType `json:"nodeType"`
	Valid    bool           `json:"valid"`
	Error    string         `json:"error,omitempty"`
	Warnings []string       `json:"warnings"`
}

// Observer is notified of every finished execution.
type Observer interface {
	ObserveTest(category string, status Status, duration time.Duration)
}

// Engine runs agent tests. It is safe for concurrent use.
type Engine struct {
	store        store.Store
	logger       *slog.Logger
	observer     Observer
	validateOpts []validate.Option

	mu      sync.RWMutex
	running map[string]*Execution

	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore persists finished executions.
func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithObserver receives validation and test outcomes.
func WithObserver(observer Observer) Option {
	return func(e *Engine) { e.observer = observer }
}

// WithValidateOptions forwards options to every validate.ValidateAgent call.
func WithValidateOptions(opts ...validate.Option) Option {
	return func(e *Engine) { e.validateOpts = append(e.validateOpts, opts...) }
}

// New returns an Engine. Without WithStore executions live only in memory.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:  slog.Default(),
		running: make(map[string]*Execution),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateRealTime is the cheap structural check used while the graph is
// being edited.
func (e *Engine) ValidateRealTime(a *agent.Agent) validate.AgentValidation {
	return validate.ValidateAgent(a, e.validateOpts...)
}

// TestAgent runs the full test of a. When testData is nil the category
// validator synthesizes it. The returned Execution is final; a failed test
// is reported through its Status, not the error, which is reserved for
// unusable arguments.
func (e *Engine) TestAgent(ctx context.Context, a *agent.Agent, testData map[string]any) (*Execution, error) {
	if a == nil {
		return nil, errors.New("testengine: nil agent")
	}

	plan := strategy.DetectAgentType(a)
	if testData == nil {
		testData = strategy.ValidatorFor(plan.Category).GenerateTestData(a)
	}

	agentID := a.ID
	if agentID == "" {
		agentID = "unknown"
	}

	execution := &Execution{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		Status:    StatusRunning,
		Strategy:  plan,
		TestData:  testData,
		StartTime: e.now(),
	}
	e.track(execution)

	logger := e.logger.With(slog.String("execution_id", execution.ID), slog.String("agent_id", agentID))
	logger.InfoContext(ctx, "agent test started",
		slog.String("category", plan.Category),
		slog.String("complexity", string(plan.Complexity)),
	)

	results, err := e.run(ctx, a, plan, testData)

	end := e.now()
	finished := *execution
	finished.EndTime = &end
	finished.Results = results
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finished.Status = StatusTimeout
		finished.Error = err.Error()
	case err != nil:
		finished.Status = StatusFailed
		finished.Error = err.Error()
	case results.Success:
		finished.Status = StatusCompleted
	default:
		finished.Status = StatusFailed
	}

	e.track(&finished)
	e.persist(ctx, &finished, logger)
	if e.observer != nil {
		e.observer.ObserveTest(plan.Category, finished.Status, end.Sub(finished.StartTime))
	}

	logger.InfoContext(ctx, "agent test finished",
		slog.String("status", string(finished.Status)),
		slog.Duration("duration", end.Sub(finished.StartTime)),
	)
	return &finished, nil
}

// run performs the test stages. A simulation timeout is returned as the
// error alongside partial results.
func (e *Engine) run(ctx context.Context, a *agent.Agent, plan strategy.Strategy, testData map[string]any) (*Results, error) {
	start := e.now()
	results := &Results{Warnings: []string{}, Recommendations: []string{}}
	finish := func() *Results {
		results.Duration = e.now().Sub(start)
		return results
	}

	structure := validate.ValidateAgent(a, e.validateOpts...)
	results.Warnings = append(results.Warnings, structure.Warnings...)
	if !structure.IsValid {
		results.Errors = structure.Errors
		results.Recommendations = append(results.Recommendations, "Corrigir erros estruturais antes de prosseguir")
		return finish(), nil
	}
	results.ValidationResults.Structure = true
	results.ValidationResults.DataFlow = true
	results.ValidationResults.APICalls = a.CountByType()[agent.NodeAPI]

	allNodesValid := true
	for _, node := range a.Nodes {
		outcome := validate.ValidateNode(node, a)
		results.ValidationResults.NodeValidations = append(results.ValidationResults.NodeValidations, NodeValidation{
			NodeID:   node.ID,
			NodeType: node.Kind(),
			Valid:    outcome.Valid,
			Error:    outcome.Error,
			Warnings: nonNil(outcome.Warnings),
		})
		allNodesValid = allNodesValid && outcome.Valid
	}

	if err := validate.ValidatePayload(synth.InputSchema(a), testData); err != nil {
		results.Warnings = append(results.Warnings, fmt.Sprintf("Dados de teste não correspondem ao schema de entrada: %s", violations(err)))
	}

	category := strategy.ValidatorFor(plan.Category).ValidateCategory(a)
	results.ValidationResults.CategorySpecific = category.Valid
	results.Warnings = append(results.Warnings, category.Warnings...)
	if !category.Valid {
		results.Warnings = append(results.Warnings, category.Error)
	}

	simulated := true
	var simErr error
	if plan.Complexity != agent.Advanced {
		output, err := simulate.Simulate(ctx, a, testData, plan)
		if err != nil {
			simulated = false
			simErr = err
			results.Warnings = append(results.Warnings, fmt.Sprintf("Erro na simulação de execução: %v", err))
		}
		results.Output = output
	}

	results.Recommendations = append(results.Recommendations, Recommendations(a, plan, results.Warnings)...)
	results.Success = allNodesValid && category.Valid && simulated

	if errors.Is(simErr, context.DeadlineExceeded) {
		return finish(), simErr
	}
	return finish(), nil
}

// violations lists the schema mismatches carried by a ValidatePayload error.
func violations(err error) string {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		if list, ok := appErr.Context["violations"].([]string); ok && len(list) > 0 {
			return strings.Join(list, "; ")
		}
		return appErr.UserMessage
	}
	return err.Error()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Recommendations derives improvement hints from the graph shape and the
// collected warnings.
func Recommendations(a *agent.Agent, plan strategy.Strategy, warnings []string) []string {
	var out []string

	if plan.Complexity == agent.Beginner && len(a.Nodes) > 5 {
		out = append(out, "Considere simplificar o fluxo para melhor manutenibilidade")
	}
	if plan.Complexity == agent.Advanced && len(a.Nodes) < 5 {
		out = append(out, "Agente avançado poderia ter mais nós para maior funcionalidade")
	}
	if plan.Has(agent.NodeAI) && !plan.Has(agent.NodeLogic) {
		out = append(out, "Considere adicionar nó de lógica para validação dos resultados da IA")
	}
	if plan.Has(agent.NodeAPI) && !plan.Has(agent.NodeLogic) {
		out = append(out, "Adicione validação de erro para chamadas de API")
	}
	if anyContains(warnings, "prompt") {
		out = append(out, "Melhore a qualidade dos prompts para resultados mais consistentes")
	}
	if anyContains(warnings, "schema") {
		out = append(out, "Defina schemas de entrada e saída para melhor validação")
	}

	return out
}

func anyContains(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func (e *Engine) track(execution *Execution) {
	e.mu.Lock()
	e.running[execution.ID] = execution
	e.mu.Unlock()
}

func (e *Engine) persist(ctx context.Context, execution *Execution, logger *slog.Logger) {
	if e.store == nil {
		return
	}

	var end time.Time
	if execution.EndTime != nil {
		end = *execution.EndTime
	}
	record, err := store.NewRecord(execution.ID, execution.AgentID, store.KindTest, string(execution.Status), execution.StartTime, end, execution)
	if err == nil {
		err = e.store.Save(ctx, record)
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to persist test execution", slog.String("error", err.Error()))
	}
}

// Status returns the execution with id from the registry or, failing that,
// from the store.
func (e *Engine) Status(ctx context.Context, id string) (*Execution, bool) {
	e.mu.RLock()
	execution, ok := e.running[id]
	e.mu.RUnlock()
	if ok {
		copied := *execution
		return &copied, true
	}

	if e.store == nil {
		return nil, false
	}
	record, err := e.store.Get(ctx, id)
	if err != nil || record.Kind != store.KindTest {
		return nil, false
	}
	var stored Execution
	if err := json.Unmarshal(record.Payload, &stored); err != nil {
		e.logger.WarnContext(ctx, "stored test execution is unreadable", slog.String("execution_id", id), slog.String("error", err.Error()))
		return nil, false
	}
	return &stored, true
}

// Running lists every tracked execution, finished ones included until
// Cleanup removes them.
func (e *Engine) Running() []*Execution {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*Execution, 0, len(e.running))
	for _, execution := range e.running {
		copied := *execution
		out = append(out, &copied)
	}
	return out
}

// Cleanup drops finished executions that ended more than maxAge ago and
// returns how many were removed. maxAge <= 0 drops every finished one.
func (e *Engine) Cleanup(maxAge time.Duration) int {
	cutoff := e.now().Add(-maxAge)

	e.mu.Lock()
	defer e.mu.Unlock()

	removed := 0
	for id, execution := range e.running {
		if execution.Status == StatusRunning || execution.EndTime == nil {
			continue
		}
		if maxAge > 0 && execution.EndTime.After(cutoff) {
			continue
		}
		delete(e.running, id)
		removed++
	}
	return removed
}
