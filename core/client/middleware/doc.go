// Package middleware provides the built-in middleware applied to every
// provider pipeline. Each middleware is constructed via a New* function that
// returns a [client.MiddlewareConfig] ready to be passed to [client.New].
//
// # Available Middleware
//
//   - [NewErrorMiddleware]: Converts native adapter errors into classified
//     [apperr.AppError] values (quota, timeout, auth, transient 5xx).
//
//   - [NewRetryMiddleware]: Retries retryable failures with exponential backoff
//     via [apperr.Retry].
//
//   - [NewTimeoutMiddleware]: Adds a per-attempt deadline via context.WithTimeout.
//
//   - [NewLoggingMiddleware]: Emits structured slog entries before and after
//     every provider call, with three verbosity levels.
//
// # Usage
//
//	pipeline, err := client.New(provider,
//	    middleware.NewLoggingMiddleware(logger, middleware.LogLevelStandard),
//	    middleware.NewRetryMiddleware(apperr.RetryOptions{MaxRetries: 2}),
//	    middleware.NewTimeoutMiddleware(30*time.Second),
//	    middleware.NewErrorMiddleware(provider.ID()),
//	)
//
// A request travels Logging → Retry → Timeout → Error → Provider, so every
// retry attempt gets a fresh deadline and the retry loop sees classified errors.
package middleware
