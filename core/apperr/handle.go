package apperr

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Handle converts any error into an AppError. AppErrors already in the chain
// are returned as is, enriched with fields when given. Native errors are
// classified by their message.
func Handle(err error, fields map[string]any) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		for key, value := range fields {
			appErr = appErr.WithContext(key, value)
		}
		return appErr
	}

	return New(classify(err), err.Error(), WithCause(err), WithFields(fields))
}

func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	message := strings.ToLower(err.Error())
	switch {
	case containsAny(message, "quota", "rate limit", "rate_limit", "status 429", "too many requests"):
		return KindAIQuotaExceeded
	case containsAny(message, "timeout", "timed out", "deadline exceeded"):
		return KindTimeout
	case containsAny(message, "network", "fetch failed", "connection refused", "connection reset", "no such host"):
		return KindNetwork
	case containsAny(message, "pdf", "file"):
		return KindFileProcessing
	default:
		return KindUnknown
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether err should be retried. AppErrors answer with
// their own flag; anything else is classified first.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Handle(err, nil).Retryable
}

// HTTPStatus maps a kind to the HTTP status returned by the server.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindMissingRequiredField, KindInvalidInput:
		return http.StatusBadRequest
	case KindFileProcessing, KindPDFExtraction, KindTextExtraction:
		return http.StatusUnprocessableEntity
	case KindAIProvider, KindEmail, KindDatabase, KindNetwork:
		return http.StatusServiceUnavailable
	case KindAIQuotaExceeded:
		return http.StatusTooManyRequests
	case KindAITimeout, KindTimeout:
		return http.StatusGatewayTimeout
	case KindAIInvalidResponse, KindAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RetryStrategyFor returns the recommended retry policy for kind.
func RetryStrategyFor(kind Kind) RetryOptions {
	switch kind {
	case KindAIQuotaExceeded:
		return RetryOptions{MaxRetries: 3, InitialDelay: 60 * time.Second}
	case KindNetwork, KindTimeout:
		return RetryOptions{MaxRetries: 3, InitialDelay: 5 * time.Second}
	case KindAIProvider:
		return RetryOptions{MaxRetries: 2, InitialDelay: 2 * time.Second}
	case KindFileProcessing:
		return RetryOptions{MaxRetries: 2, InitialDelay: time.Second}
	default:
		return RetryOptions{MaxRetries: 2, InitialDelay: 3 * time.Second}
	}
}

// Title returns a short user-facing heading for kind.
func Title(kind Kind) string {
	switch kind {
	case KindValidation, KindMissingRequiredField, KindInvalidInput:
		return "Erro de Validação"
	case KindFileProcessing, KindPDFExtraction, KindTextExtraction:
		return "Erro no Processamento do Arquivo"
	case KindAIProvider:
		return "Serviço de IA Indisponível"
	case KindAIQuotaExceeded:
		return "Limite de Uso Atingido"
	case KindAITimeout, KindTimeout:
		return "Tempo Esgotado"
	case KindAIInvalidResponse:
		return "Resposta Inválida da IA"
	case KindNodeExecution:
		return "Erro na Execução do Nó"
	case KindAgentExecution, KindWorkflow:
		return "Erro na Execução do Agente"
	case KindAPI:
		return "Erro na API Externa"
	case KindEmail:
		return "Erro no Envio de E-mail"
	case KindDatabase:
		return "Erro no Banco de Dados"
	case KindNetwork:
		return "Erro de Conexão"
	default:
		return "Erro Inesperado"
	}
}
