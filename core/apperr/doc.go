// Package apperr is the typed error currency shared by the validator, the
// orchestrator and the runtime.
//
// Every public boundary converts native errors into an [*AppError] with
// [Handle]. An AppError separates the message shown to end users
// (UserMessage, always Portuguese) from the TechnicalMessage meant for logs,
// and carries a Retryable flag consumed by [Retry].
//
// Use errors.As to recover an AppError from a wrapped chain:
//
//	var appErr *apperr.AppError
//	if errors.As(err, &appErr) && appErr.Kind == apperr.KindAIQuotaExceeded {
//	    // back off
//	}
package apperr
