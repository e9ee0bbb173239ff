package apperr

import (
	"errors"
	"fmt"
)

// Validation reports a user-correctable input problem on field.
func Validation(field, technical string, opts ...Option) *AppError {
	opts = append([]Option{
		WithField("field", field),
		WithUserMessage(fmt.Sprintf("O campo %q é inválido.", field)),
	}, opts...)
	return New(KindValidation, technical, opts...)
}

// MissingField reports a required field that was left empty.
func MissingField(field string) *AppError {
	return New(KindMissingRequiredField, fmt.Sprintf("missing required field %q", field),
		WithField("field", field),
		WithUserMessage(fmt.Sprintf("O campo %q é obrigatório.", field)),
	)
}

// FileProcessing reports a failure reading or converting fileName.
func FileProcessing(fileName string, cause error) *AppError {
	return New(KindFileProcessing, fmt.Sprintf("processing %q: %v", fileName, cause),
		WithField("fileName", fileName),
		WithCause(cause),
	)
}

// AIProvider reports a failed completion call on provider.
func AIProvider(provider string, cause error, opts ...Option) *AppError {
	opts = append([]Option{WithField("provider", provider), WithCause(cause)}, opts...)
	return New(KindAIProvider, fmt.Sprintf("provider %s: %v", provider, cause), opts...)
}

// AIQuotaExceeded reports a rate limit or exhausted quota on provider.
func AIQuotaExceeded(provider string, cause error) *AppError {
	return New(KindAIQuotaExceeded, fmt.Sprintf("provider %s quota exceeded: %v", provider, cause),
		WithField("provider", provider),
		WithCause(cause),
	)
}

// AIInvalidResponse reports a completion that could not be decoded.
func AIInvalidResponse(provider string, cause error) *AppError {
	return New(KindAIInvalidResponse, fmt.Sprintf("provider %s returned an unusable response: %v", provider, cause),
		WithField("provider", provider),
		WithCause(cause),
	)
}

// NodeExecution wraps a failure raised while executing a graph node. The
// result inherits the cause's retryability when the cause is an AppError.
func NodeExecution(nodeID, nodeType string, cause error) *AppError {
	retryable := false
	var inner *AppError
	if errors.As(cause, &inner) {
		retryable = inner.Retryable
	}
	return New(KindNodeExecution, fmt.Sprintf("node %s (%s): %v", nodeID, nodeType, cause),
		WithFields(map[string]any{"nodeId": nodeID, "nodeType": nodeType, "originalError": fmt.Sprint(cause)}),
		WithUserMessage(fmt.Sprintf("Falha ao executar o nó %q.", nodeID)),
		WithRetryable(retryable),
		WithCause(cause),
	)
}

// Email reports a delivery failure to recipient.
func Email(recipient string, cause error) *AppError {
	return New(KindEmail, fmt.Sprintf("sending to %s: %v", recipient, cause),
		WithField("recipient", recipient),
		WithCause(cause),
	)
}

// Timeout reports an operation that exceeded its deadline.
func Timeout(operation string, cause error) *AppError {
	return New(KindTimeout, fmt.Sprintf("%s timed out: %v", operation, cause),
		WithField("operation", operation),
		WithCause(cause),
	)
}

// Network reports a transport-level failure.
func Network(cause error) *AppError {
	return New(KindNetwork, cause.Error(), WithCause(cause))
}
