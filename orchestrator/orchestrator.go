package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/core/client"
	"github.com/leofalp/agentgraph/core/client/middleware"
	"github.com/leofalp/agentgraph/core/cost"
	"github.com/leofalp/agentgraph/core/overview"
	"github.com/leofalp/agentgraph/providers/ai"
)

var (
	// ErrNoProviders is returned when no candidate provider has a credential.
	ErrNoProviders = errors.New("no AI provider configured")

	// ErrAllProvidersFailed is wrapped into the aggregate exhaustion error.
	ErrAllProvidersFailed = errors.New("all AI providers failed")

	// ErrStreamInterrupted marks a stream that failed after content already
	// reached OnChunk. It is terminal: no other provider is tried.
	ErrStreamInterrupted = errors.New("stream interrupted after partial output")
)

// DefaultFallbackOrder puts the fast, cheap providers first.
var DefaultFallbackOrder = []ai.ProviderID{ai.Anthropic, ai.Google, ai.HuggingFace, ai.OpenAI}

// PingPrompt is sent by TestProvider.
const PingPrompt = `Teste de conectividade. Responda apenas: OK`

// Response is the normalized answer of any provider.
type Response struct {
	Content      string        `json:"content"`
	Confidence   float64       `json:"confidence"`
	TokensUsed   int           `json:"tokens_used"`
	Model        string        `json:"model"`
	Provider     ai.ProviderID `json:"provider"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Cost         cost.Estimate `json:"cost"`
	Duration     time.Duration `json:"duration"`
}

// Options tunes a single completion.
type Options struct {
	Temperature  float32
	MaxTokens    int
	SystemPrompt string

	// DisableFallback makes the first provider failure terminal.
	DisableFallback bool

	// OnChunk receives content deltas in streaming calls.
	OnChunk func(chunk string)
}

// Observer receives dispatch events, typically to feed metrics.
type Observer interface {
	ObserveAttempt(provider ai.ProviderID, model string, duration time.Duration, err error)
	ObserveCompletion(response *Response, fallbackUsed bool)
	ObserveExhausted(attempted []ai.ProviderID)
}

// MiddlewareFactory builds a provider-specific middleware. Factories run
// outside the built-in logging, retry, timeout and classification layers.
type MiddlewareFactory func(provider ai.ProviderID) client.MiddlewareConfig

// Orchestrator routes completions through the fallback sequence. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	order     []ai.ProviderID
	pipelines map[ai.ProviderID]*client.Pipeline

	contract  OutputContract
	logger    *slog.Logger
	logLevel  middleware.LogLevel
	retry     apperr.RetryOptions
	timeout   time.Duration
	factories []MiddlewareFactory
	observer  Observer
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFallbackOrder replaces DefaultFallbackOrder. Providers not listed are
// appended in their registration order.
func WithFallbackOrder(order ...ai.ProviderID) Option {
	return func(o *Orchestrator) { o.order = slices.Clone(order) }
}

// WithLogger sets the logger shared by dispatch and the logging middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithLogLevel sets how much the per-provider logging middleware records.
func WithLogLevel(level middleware.LogLevel) Option {
	return func(o *Orchestrator) { o.logLevel = level }
}

// WithOutputContract swaps the injected structured-output policy.
func WithOutputContract(contract OutputContract) Option {
	return func(o *Orchestrator) { o.contract = contract }
}

// WithRetry sets the per-provider retry policy.
func WithRetry(options apperr.RetryOptions) Option {
	return func(o *Orchestrator) { o.retry = options }
}

// WithAttemptTimeout bounds every single provider call. Zero disables it.
func WithAttemptTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = timeout }
}

// WithMiddleware adds provider-specific middleware such as caching.
func WithMiddleware(factories ...MiddlewareFactory) Option {
	return func(o *Orchestrator) { o.factories = append(o.factories, factories...) }
}

// WithObserver receives attempt, completion and exhaustion events.
func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) { o.observer = observer }
}

// New registers providers and builds one pipeline per provider. Later
// providers with the same ID replace earlier ones.
func New(providers []ai.Provider, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		order:     slices.Clone(DefaultFallbackOrder),
		pipelines: make(map[ai.ProviderID]*client.Pipeline, len(providers)),
		contract:  ForcedJSON,
		logger:    slog.Default(),
		logLevel:  middleware.LogLevelStandard,
		retry:     apperr.RetryOptions{MaxRetries: 2, InitialDelay: time.Second},
		timeout:   60 * time.Second,
		observer:  nopObserver{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	for _, provider := range providers {
		if provider == nil {
			continue
		}
		id := provider.ID()

		middlewares := make([]client.MiddlewareConfig, 0, len(o.factories)+4)
		for _, factory := range o.factories {
			middlewares = append(middlewares, factory(id))
		}
		middlewares = append(middlewares,
			middleware.NewLoggingMiddleware(o.logger, id, o.logLevel),
			middleware.NewRetryMiddleware(o.retryFor(id)),
			middleware.NewTimeoutMiddleware(o.timeout),
			middleware.NewErrorMiddleware(id),
		)

		pipeline, err := client.New(provider, middlewares...)
		if err != nil {
			return nil, fmt.Errorf("build pipeline for %s: %w", id, err)
		}
		o.pipelines[id] = pipeline

		if !slices.Contains(o.order, id) {
			o.order = append(o.order, id)
		}
	}

	return o, nil
}

func (o *Orchestrator) retryFor(id ai.ProviderID) apperr.RetryOptions {
	options := o.retry
	userHook := options.OnRetry
	options.OnRetry = func(attempt int, err error, delay time.Duration) {
		o.logger.Warn("retrying provider call",
			slog.String("provider", id.String()),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
		if userHook != nil {
			userHook(attempt, err, delay)
		}
	}
	return options
}

// FallbackOrder returns the configured order, configured or not.
func (o *Orchestrator) FallbackOrder() []ai.ProviderID {
	return slices.Clone(o.order)
}

// IsAvailable reports whether id is registered with a non-blank credential.
func (o *Orchestrator) IsAvailable(id ai.ProviderID) bool {
	pipeline, ok := o.pipelines[id]
	return ok && pipeline.Provider().Configured()
}

// AvailableProviders lists the configured providers in fallback order.
func (o *Orchestrator) AvailableProviders() []ai.ProviderID {
	out := make([]ai.ProviderID, 0, len(o.order))
	for _, id := range o.order {
		if o.IsAvailable(id) {
			out = append(out, id)
		}
	}
	return out
}

// candidates puts preferred first, then the fallback order without it.
func (o *Orchestrator) candidates(preferred ai.ProviderID) []ai.ProviderID {
	if preferred == "" {
		return slices.Clone(o.order)
	}
	out := []ai.ProviderID{preferred}
	for _, id := range o.order {
		if id != preferred {
			out = append(out, id)
		}
	}
	return out
}

type callFunc func(ctx context.Context, pipeline *client.Pipeline, request ai.ChatRequest, opts Options) (*ai.ChatResponse, error)

// GenerateCompletion sends prompt to preferred (or the head of the fallback
// order when empty), falling through to the next configured provider on
// failure unless opts.DisableFallback is set.
func (o *Orchestrator) GenerateCompletion(ctx context.Context, preferred ai.ProviderID, prompt, model string, opts Options) (*Response, error) {
	return o.dispatch(ctx, preferred, prompt, model, opts, send)
}

// GenerateStreamCompletion behaves like GenerateCompletion but streams
// content to opts.OnChunk. Providers without native streaming degrade to a
// synchronous call and deliver the whole answer as one chunk.
func (o *Orchestrator) GenerateStreamCompletion(ctx context.Context, preferred ai.ProviderID, prompt, model string, opts Options) (*Response, error) {
	return o.dispatch(ctx, preferred, prompt, model, opts, o.stream)
}

func (o *Orchestrator) dispatch(ctx context.Context, preferred ai.ProviderID, prompt, model string, opts Options, call callFunc) (*Response, error) {
	var (
		attempted []ai.ProviderID
		lastErr   error
	)

	for _, id := range o.candidates(preferred) {
		if !o.IsAvailable(id) {
			o.logger.DebugContext(ctx, "provider not configured, skipping", slog.String("provider", id.String()))
			continue
		}
		if len(attempted) > 0 && ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		attempted = append(attempted, id)
		pipeline := o.pipelines[id]
		request := o.buildRequest(id, prompt, model, opts)

		o.logger.InfoContext(ctx, "attempting completion",
			slog.String("provider", id.String()),
			slog.String("model", request.Model),
			slog.Int("attempt", len(attempted)),
		)

		start := time.Now()
		raw, err := call(ctx, pipeline, request, opts)
		elapsed := time.Since(start)
		o.observer.ObserveAttempt(id, request.Model, elapsed, err)

		if err != nil {
			lastErr = err
			if opts.DisableFallback {
				break
			}
			if errors.Is(err, ErrStreamInterrupted) {
				o.logger.WarnContext(ctx, "stream failed after partial output, not falling back",
					slog.String("provider", id.String()),
					slog.String("error", err.Error()),
				)
				break
			}
			o.logger.WarnContext(ctx, "provider failed, trying next",
				slog.String("provider", id.String()),
				slog.String("error", err.Error()),
			)
			continue
		}

		fallbackUsed := len(attempted) > 1
		response := o.normalize(pipeline.Provider(), request, raw, elapsed)
		overview.FromContext(ctx).Record(id, raw, elapsed, fallbackUsed)
		o.observer.ObserveCompletion(response, fallbackUsed)
		return response, nil
	}

	return nil, o.exhausted(ctx, attempted, lastErr)
}

func (o *Orchestrator) buildRequest(id ai.ProviderID, prompt, model string, opts Options) ai.ChatRequest {
	system := opts.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = DefaultSystemPrompt(id)
	}

	request := ai.UserPrompt(CompatibleModel(model, id), o.contract.SystemPrompt(o.now(), system), prompt)
	request.JSONMode = o.contract.JSONMode
	if opts.MaxTokens > 0 || opts.Temperature != 0 {
		request.GenerationConfig = &ai.GenerationConfig{MaxTokens: opts.MaxTokens, Temperature: opts.Temperature}
	}
	return request
}

func (o *Orchestrator) normalize(provider ai.Provider, request ai.ChatRequest, raw *ai.ChatResponse, elapsed time.Duration) *Response {
	model := raw.Model
	if model == "" {
		model = request.Model
	}

	confidence := 0.8
	if provider.IsStopMessage(raw) {
		confidence = 1.0
	}

	tokens := raw.TotalTokens()
	return &Response{
		Content:      raw.Content,
		Confidence:   confidence,
		TokensUsed:   tokens,
		Model:        model,
		Provider:     provider.ID(),
		FinishReason: raw.FinishReason,
		Cost:         cost.EstimateFor(provider.ID().String(), model, tokens),
		Duration:     elapsed,
	}
}

func (o *Orchestrator) exhausted(ctx context.Context, attempted []ai.ProviderID, lastErr error) error {
	available := o.AvailableProviders()

	if len(attempted) == 0 {
		o.logger.ErrorContext(ctx, "no AI provider configured")
		return apperr.New(apperr.KindAIProvider, ErrNoProviders.Error(),
			apperr.WithCause(ErrNoProviders),
			apperr.WithSeverity(apperr.SeverityCritical),
			apperr.WithRetryable(false),
			apperr.WithUserMessage("Nenhum provedor de IA está configurado."),
			apperr.WithSuggestedAction("Configure ao menos uma chave de API de provedor de IA."),
		)
	}

	o.observer.ObserveExhausted(attempted)
	o.logger.ErrorContext(ctx, "all AI providers failed",
		slog.Any("attempted", attempted),
		slog.String("error", lastErr.Error()),
	)

	technical := fmt.Sprintf("All AI providers failed. Last error: %v. Attempted providers: %s. Available providers: %s. Check your API keys and network connection.",
		lastErr, joinIDs(attempted), joinIDs(available))

	return apperr.New(apperr.KindAIProvider, technical,
		apperr.WithCause(errors.Join(ErrAllProvidersFailed, lastErr)),
		apperr.WithSeverity(apperr.SeverityCritical),
		apperr.WithRetryable(apperr.IsRetryable(lastErr)),
		apperr.WithField("attempted", attempted),
		apperr.WithUserMessage("Todos os provedores de IA falharam. Tente novamente em alguns instantes."),
	)
}

func joinIDs(ids []ai.ProviderID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return strings.Join(names, ", ")
}

func send(ctx context.Context, pipeline *client.Pipeline, request ai.ChatRequest, _ Options) (*ai.ChatResponse, error) {
	return pipeline.Send(ctx, request)
}

func (o *Orchestrator) stream(ctx context.Context, pipeline *client.Pipeline, request ai.ChatRequest, opts Options) (*ai.ChatResponse, error) {
	if !pipeline.SupportsStreaming() {
		o.logger.WarnContext(ctx, "provider does not support streaming, using regular completion",
			slog.String("provider", pipeline.Provider().ID().String()))

		response, err := pipeline.Send(ctx, request)
		if err != nil {
			return nil, err
		}
		if opts.OnChunk != nil && response.Content != "" {
			opts.OnChunk(response.Content)
		}
		return response, nil
	}

	stream, err := pipeline.Stream(ctx, request)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	response := &ai.ChatResponse{Model: request.Model}
	for event, err := range stream.Iter() {
		if err != nil {
			if content.Len() > 0 {
				return nil, fmt.Errorf("%w: %w", ErrStreamInterrupted, err)
			}
			return nil, err
		}
		switch event.Type {
		case ai.StreamEventContent:
			content.WriteString(event.Content)
			if opts.OnChunk != nil {
				opts.OnChunk(event.Content)
			}
		case ai.StreamEventUsage:
			response.Usage = event.Usage
		case ai.StreamEventDone:
			response.FinishReason = event.FinishReason
		}
	}
	response.Content = content.String()
	return response, nil
}

type nopObserver struct{}

func (nopObserver) ObserveAttempt(ai.ProviderID, string, time.Duration, error) {}
func (nopObserver) ObserveCompletion(*Response, bool)                          {}
func (nopObserver) ObserveExhausted([]ai.ProviderID)                           {}
