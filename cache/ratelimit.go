package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/core/client"
	"github.com/leofalp/agentgraph/providers/ai"
)

const (
	DefaultRateLimit       = 100
	DefaultRateWindow      = time.Hour
	DefaultRateLimitPrefix = "rate_limit:"
)

type userKey struct{}

// WithUser attaches the caller's identity for rate limiting.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFrom returns the identity stored by WithUser.
func UserFrom(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userKey{}).(string)
	return userID, ok && userID != ""
}

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetTime"`
}

// RateLimiter allows Limit calls per Window for each provider and user.
type RateLimiter struct {
	client *backend.Client
	limit  int
	window time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewRateLimiter falls back to DefaultRateLimit and DefaultRateWindow for
// non-positive values.
func NewRateLimiter(client *backend.Client, limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{client: client, limit: limit, window: window, logger: logger, now: time.Now}
}

// Allow counts one call. The window starts at the first call.
func (l *RateLimiter) Allow(ctx context.Context, provider ai.ProviderID, userID string) (Decision, error) {
	key := DefaultRateLimitPrefix + string(provider) + ":" + userID

	current, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if current == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}

	return Decision{
		Allowed:   int(current) <= l.limit,
		Remaining: max(0, l.limit-int(current)),
		ResetAt:   l.now().Add(ttl),
	}, nil
}

func (l *RateLimiter) check(ctx context.Context, provider ai.ProviderID) error {
	userID, ok := UserFrom(ctx)
	if !ok {
		return nil
	}

	decision, err := l.Allow(ctx, provider, userID)
	if err != nil {
		l.logger.WarnContext(ctx, "rate limiter unavailable", slog.String("provider", provider.String()), slog.String("error", err.Error()))
		return nil
	}
	if decision.Allowed {
		return nil
	}

	l.logger.WarnContext(ctx, "rate limit exceeded",
		slog.String("provider", provider.String()),
		slog.String("user_id", userID),
		slog.Int("limit", l.limit),
		slog.Time("reset_at", decision.ResetAt),
	)
	return apperr.AIQuotaExceeded(provider.String(), fmt.Errorf("user %s exceeded %d requests per %s", userID, l.limit, l.window)).
		WithContext("resetAt", decision.ResetAt)
}

// Middleware rejects calls over the limit with AI_QUOTA_EXCEEDED. Calls
// without a user in the context are not limited.
func (l *RateLimiter) Middleware(provider ai.ProviderID) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				if err := l.check(ctx, provider); err != nil {
					return nil, err
				}
				return next(ctx, request)
			}
		},
		Stream: func(next client.StreamFunc) client.StreamFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
				if err := l.check(ctx, provider); err != nil {
					return nil, err
				}
				return next(ctx, request)
			}
		},
	}
}
