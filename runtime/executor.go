package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/core/overview"
	"github.com/leofalp/agentgraph/orchestrator"
	"github.com/leofalp/agentgraph/providers/ai"
	"github.com/leofalp/agentgraph/store"
	"github.com/leofalp/agentgraph/validate"
)

// Completer is the part of the orchestrator the executor needs.
type Completer interface {
	GenerateCompletion(ctx context.Context, preferred ai.ProviderID, prompt, model string, opts orchestrator.Options) (*orchestrator.Response, error)
}

// NodeTrace records one node visit.
type NodeTrace struct {
	NodeID   string         `json:"nodeId"`
	NodeType agent.NodeType `json:"nodeType"`
	Label    string         `json:"label,omitempty"`
	Duration time.Duration  `json:"duration"`
	Skipped  bool           `json:"skipped,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Result is the outcome of Execute.
type Result struct {
	ID       string                    `json:"executionId"`
	AgentID  string                    `json:"agentId"`
	Success  bool                      `json:"success"`
	Final    any                       `json:"output,omitempty"`
	Outputs  map[string]map[string]any `json:"nodeResults"`
	Trace    []NodeTrace               `json:"trace"`
	Usage    overview.Summary          `json:"usage"`
	Duration time.Duration             `json:"executionTime"`
	Error    *apperr.AppError          `json:"error,omitempty"`
}

// Executor runs agents. It holds no per-run state and is safe for concurrent
// use.
type Executor struct {
	completer  Completer
	httpClient *http.Client
	logger     *slog.Logger
	retry      apperr.RetryOptions
	store      store.Store
	now        func() time.Time

	logicTimeout time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithHTTPClient sets the client used by api nodes.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Executor) { e.httpClient = client }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithLogicTimeout bounds each logic node's script (default 5s).
func WithLogicTimeout(timeout time.Duration) Option {
	return func(e *Executor) { e.logicTimeout = timeout }
}

// WithRetry replaces the AI node retry policy (2 retries from 1s).
func WithRetry(options apperr.RetryOptions) Option {
	return func(e *Executor) { e.retry = options }
}

// WithStore persists every finished run.
func WithStore(s store.Store) Option {
	return func(e *Executor) { e.store = s }
}

// New returns an Executor that sends ai nodes to completer.
func New(completer Completer, opts ...Option) *Executor {
	e := &Executor{
		completer:  completer,
		httpClient: &http.Client{Timeout: apiTimeout},
		logger:     slog.Default(),
		retry:      apperr.RetryOptions{MaxRetries: 2, InitialDelay: time.Second},
		now:        time.Now,

		logicTimeout: defaultLogicTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a with input. A node failure is reported in Result.Error and
// returned as the error too; the partial Result is always returned.
func (e *Executor) Execute(ctx context.Context, a *agent.Agent, input map[string]any) (*Result, error) {
	start := e.now()
	result := &Result{
		ID:      uuid.NewString(),
		AgentID: a.ID,
		Outputs: make(map[string]map[string]any, len(a.Nodes)),
	}

	usage := overview.FromContext(ctx)
	if usage == nil {
		usage = overview.New()
		ctx = usage.ToContext(ctx)
	}

	logger := e.logger.With(slog.String("execution_id", result.ID), slog.String("agent_id", a.ID))
	logger.InfoContext(ctx, "agent execution started", slog.Int("nodes", len(a.Nodes)))

	snapshot, err := e.snapshot(a)
	if err == nil {
		err = e.run(ctx, snapshot, input, result, logger)
	}

	result.Duration = e.now().Sub(start)
	result.Usage = usage.Summary()
	if err != nil {
		result.Error = apperr.Handle(err, nil)
		logger.ErrorContext(ctx, "agent execution failed", slog.String("error", err.Error()))
	} else {
		result.Success = true
		logger.InfoContext(ctx, "agent execution completed", slog.Duration("duration", result.Duration))
	}

	e.persist(ctx, result, start, logger)
	return result, err
}

// snapshot validates a and returns the frozen copy that gets executed. A
// cycle is a WORKFLOW_ERROR; any other blocking issue is a VALIDATION_ERROR.
func (e *Executor) snapshot(a *agent.Agent) (*agent.Agent, error) {
	validation := validate.ValidateAgent(a)
	if !validation.IsValid {
		issue := validation.Errors[0]
		if issue.Type == validate.CheckTopology {
			return nil, apperr.New(apperr.KindWorkflow, issue.Message,
				apperr.WithUserMessage("O fluxo do agente contém um ciclo e não pode ser executado."),
			)
		}
		return nil, apperr.Validation(issue.Type, issue.Message,
			apperr.WithUserMessage(issue.Message),
			apperr.WithSuggestedAction("Corrija o agente antes de executá-lo."),
		)
	}
	return a.Clone()
}

func (e *Executor) run(ctx context.Context, a *agent.Agent, input map[string]any, result *Result, logger *slog.Logger) error {
	order, err := a.TopologicalOrder()
	if err != nil {
		return apperr.New(apperr.KindWorkflow, err.Error(),
			apperr.WithCause(err),
			apperr.WithUserMessage("O fluxo do agente contém um ciclo e não pode ser executado."),
		)
	}

	vars := maps.Clone(input)
	if vars == nil {
		vars = map[string]any{}
	}
	skipped := make(map[string]bool)
	var last map[string]any

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return apperr.Timeout("agent execution", err)
		}

		node, _ := a.Node(id)
		trace := NodeTrace{NodeID: id, NodeType: node.Kind(), Label: node.Label()}

		if e.blocked(a, id, skipped) {
			skipped[id] = true
			trace.Skipped = true
			result.Trace = append(result.Trace, trace)
			continue
		}

		nodeStart := e.now()
		output, err := e.executeNode(ctx, *node, vars)
		trace.Duration = e.now().Sub(nodeStart)
		if err != nil {
			wrapped := apperr.NodeExecution(id, string(node.Kind()), err)
			trace.Error = err.Error()
			result.Trace = append(result.Trace, trace)
			logger.WarnContext(ctx, "node failed", slog.String("node_id", id), slog.String("node_type", string(node.Kind())), slog.String("error", err.Error()))
			return wrapped
		}

		logger.DebugContext(ctx, "node completed", slog.String("node_id", id), slog.Duration("duration", trace.Duration))
		result.Trace = append(result.Trace, trace)
		result.Outputs[id] = output
		maps.Copy(vars, output)
		last = output

		if met, ok := output[keyConditionMet].(bool); ok && !met {
			skipped[id] = true
		}
	}

	result.Final = finalOutput(last, vars)
	return nil
}

// blocked reports whether every predecessor of id was skipped or failed its
// condition. Nodes without predecessors always run.
func (e *Executor) blocked(a *agent.Agent, id string, skipped map[string]bool) bool {
	predecessors := a.Predecessors(id)
	if len(predecessors) == 0 {
		return false
	}
	for _, p := range predecessors {
		if !skipped[p] {
			return false
		}
	}
	return true
}

func (e *Executor) executeNode(ctx context.Context, node agent.Node, vars map[string]any) (map[string]any, error) {
	payload, err := node.Payload()
	if err != nil {
		return nil, err
	}

	switch data := payload.(type) {
	case agent.InputData:
		return executeInput(data, vars)
	case agent.AIData:
		return e.executeAI(ctx, data, vars)
	case agent.LogicData:
		return e.runLogic(ctx, data, vars)
	case agent.APIData:
		return e.executeAPI(ctx, data, vars)
	case agent.OutputData:
		return e.executeOutput(data, vars), nil
	default:
		return nil, fmt.Errorf("%w: %T", agent.ErrUnknownNodeType, payload)
	}
}

// finalOutput prefers the last node's AI response, then its result.
func finalOutput(last, vars map[string]any) any {
	if last == nil {
		return vars
	}
	if response, ok := last[keyResponse]; ok {
		return response
	}
	if result, ok := last[keyResult]; ok {
		return result
	}
	return last
}

func (e *Executor) persist(ctx context.Context, result *Result, start time.Time, logger *slog.Logger) {
	if e.store == nil {
		return
	}
	status := "completed"
	if !result.Success {
		status = "failed"
	}
	record, err := store.NewRecord(result.ID, result.AgentID, store.KindRun, status, start, start.Add(result.Duration), result)
	if err == nil {
		err = e.store.Save(ctx, record)
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to persist execution", slog.String("error", err.Error()))
	}
}
