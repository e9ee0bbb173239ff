package apperr

import (
	"errors"
	"fmt"
	"maps"
	"time"
)

// Kind is the closed taxonomy of failures.
type Kind string

const (
	KindValidation           Kind = "VALIDATION_ERROR"
	KindMissingRequiredField Kind = "MISSING_REQUIRED_FIELD"
	KindInvalidInput         Kind = "INVALID_INPUT"

	KindFileProcessing Kind = "FILE_PROCESSING_ERROR"
	KindPDFExtraction  Kind = "PDF_EXTRACTION_ERROR"
	KindTextExtraction Kind = "TEXT_EXTRACTION_ERROR"

	KindAIProvider        Kind = "AI_PROVIDER_ERROR"
	KindAIQuotaExceeded   Kind = "AI_QUOTA_EXCEEDED"
	KindAITimeout         Kind = "AI_TIMEOUT"
	KindAIInvalidResponse Kind = "AI_INVALID_RESPONSE"

	KindNodeExecution  Kind = "NODE_EXECUTION_ERROR"
	KindAgentExecution Kind = "AGENT_EXECUTION_ERROR"
	KindWorkflow       Kind = "WORKFLOW_ERROR"

	KindAPI      Kind = "API_ERROR"
	KindEmail    Kind = "EMAIL_ERROR"
	KindDatabase Kind = "DATABASE_ERROR"
	KindTimeout  Kind = "TIMEOUT_ERROR"
	KindNetwork  Kind = "NETWORK_ERROR"
	KindUnknown  Kind = "UNKNOWN_ERROR"
)

// Severity ranks how disruptive a failure is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// AppError is an immutable, classified failure. Use the With* methods to
// derive an enriched copy; they never mutate the receiver.
type AppError struct {
	Kind             Kind           `json:"type"`
	Severity         Severity       `json:"severity"`
	UserMessage      string         `json:"userMessage"`
	TechnicalMessage string         `json:"technicalMessage"`
	Context          map[string]any `json:"context,omitempty"`
	SuggestedAction  string         `json:"suggestedAction,omitempty"`
	Retryable        bool           `json:"retryable"`
	Timestamp        time.Time      `json:"timestamp"`

	cause error
}

// Error returns the technical representation. Never show it to end users;
// use UserMessage instead.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.TechnicalMessage)
}

// Unwrap exposes the originating error, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

// KindOf returns the Kind of the first AppError in err's chain, or
// KindUnknown when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Option customises an AppError during construction.
type Option func(*AppError)

// WithUserMessage overrides the default user-facing message.
func WithUserMessage(message string) Option {
	return func(e *AppError) { e.UserMessage = message }
}

// WithSuggestedAction overrides the default suggested action.
func WithSuggestedAction(action string) Option {
	return func(e *AppError) { e.SuggestedAction = action }
}

// WithSeverity overrides the kind's default severity.
func WithSeverity(severity Severity) Option {
	return func(e *AppError) { e.Severity = severity }
}

// WithRetryable overrides the kind's default retryable flag.
func WithRetryable(retryable bool) Option {
	return func(e *AppError) { e.Retryable = retryable }
}

// WithCause records the originating error for errors.Is/As.
func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

// WithField adds one context entry.
func WithField(key string, value any) Option {
	return func(e *AppError) {
		if e.Context == nil {
			e.Context = map[string]any{}
		}
		e.Context[key] = value
	}
}

// WithFields merges several context entries.
func WithFields(fields map[string]any) Option {
	return func(e *AppError) {
		if len(fields) == 0 {
			return
		}
		if e.Context == nil {
			e.Context = make(map[string]any, len(fields))
		}
		maps.Copy(e.Context, fields)
	}
}

// New builds an AppError of the given kind, filling severity, retryability,
// user message and suggested action from the kind's defaults.
func New(kind Kind, technical string, opts ...Option) *AppError {
	defaults := defaultsFor(kind)
	appErr := &AppError{
		Kind:             kind,
		Severity:         defaults.severity,
		UserMessage:      defaults.userMessage,
		TechnicalMessage: technical,
		SuggestedAction:  defaults.suggestedAction,
		Retryable:        defaults.retryable,
		Timestamp:        time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(appErr)
	}
	return appErr
}

// WithContext returns a copy of e with key set in its context.
func (e *AppError) WithContext(key string, value any) *AppError {
	clone := *e
	clone.Context = make(map[string]any, len(e.Context)+1)
	maps.Copy(clone.Context, e.Context)
	clone.Context[key] = value
	return &clone
}

// IsRecoverable reports whether the caller may try again.
func (e *AppError) IsRecoverable() bool {
	return e.Retryable && e.Severity != SeverityCritical
}

type kindDefaults struct {
	severity        Severity
	retryable       bool
	userMessage     string
	suggestedAction string
}

func defaultsFor(kind Kind) kindDefaults {
	switch kind {
	case KindValidation, KindMissingRequiredField, KindInvalidInput:
		return kindDefaults{SeverityLow, false,
			"Os dados fornecidos são inválidos.",
			"Verifique os campos informados e tente novamente."}
	case KindFileProcessing, KindPDFExtraction, KindTextExtraction:
		return kindDefaults{SeverityMedium, true,
			"Não foi possível processar o arquivo enviado.",
			"Verifique se o arquivo não está corrompido e tente novamente."}
	case KindAIProvider:
		return kindDefaults{SeverityHigh, true,
			"O serviço de IA está temporariamente indisponível.",
			"Aguarde alguns instantes e tente novamente."}
	case KindAIQuotaExceeded:
		return kindDefaults{SeverityMedium, true,
			"O limite de uso da IA foi atingido.",
			"Aguarde alguns minutos antes de tentar novamente."}
	case KindAITimeout:
		return kindDefaults{SeverityMedium, true,
			"A IA demorou muito para responder.",
			"Tente novamente com uma entrada menor."}
	case KindAIInvalidResponse:
		return kindDefaults{SeverityMedium, true,
			"A IA retornou uma resposta inválida.",
			"Tente novamente ou ajuste o prompt do nó."}
	case KindNodeExecution:
		return kindDefaults{SeverityHigh, false,
			"Falha ao executar um nó do agente.",
			"Revise a configuração do nó indicado."}
	case KindAgentExecution, KindWorkflow:
		return kindDefaults{SeverityHigh, false,
			"Falha ao executar o agente.",
			"Revise a configuração do agente e tente novamente."}
	case KindAPI:
		return kindDefaults{SeverityMedium, true,
			"A API externa retornou um erro.",
			"Verifique o endpoint configurado e tente novamente."}
	case KindEmail:
		return kindDefaults{SeverityMedium, true,
			"Não foi possível enviar o e-mail.",
			"Verifique o endereço informado e tente novamente."}
	case KindDatabase:
		return kindDefaults{SeverityHigh, true,
			"Erro ao acessar os dados.",
			"Tente novamente em alguns instantes."}
	case KindTimeout:
		return kindDefaults{SeverityMedium, true,
			"A operação excedeu o tempo limite.",
			"Tente novamente em alguns instantes."}
	case KindNetwork:
		return kindDefaults{SeverityMedium, true,
			"Falha de conexão.",
			"Verifique sua conexão e tente novamente."}
	default:
		return kindDefaults{SeverityMedium, false,
			"Ocorreu um erro inesperado.",
			"Tente novamente. Se o problema persistir, contate o suporte."}
	}
}
