package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	backend "github.com/redis/go-redis/v9"

	"github.com/leofalp/agentgraph/cache"
	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/internal/config"
	"github.com/leofalp/agentgraph/internal/logging"
	"github.com/leofalp/agentgraph/metrics"
	"github.com/leofalp/agentgraph/orchestrator"
	"github.com/leofalp/agentgraph/providers/ai"
	"github.com/leofalp/agentgraph/providers/ai/anthropic"
	"github.com/leofalp/agentgraph/providers/ai/gemini"
	"github.com/leofalp/agentgraph/providers/ai/huggingface"
	"github.com/leofalp/agentgraph/providers/ai/openai"
	"github.com/leofalp/agentgraph/runtime"
	"github.com/leofalp/agentgraph/store"
	"github.com/leofalp/agentgraph/testengine"
	"github.com/leofalp/agentgraph/validate"
)

// app builds dependencies on first use so that offline commands such as
// validate never touch Redis, SQLite or the network.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	redis   *backend.Client
	cache   *cache.ResponseCache
	history store.Store
	orch    *orchestrator.Orchestrator
}

func newApp(cfg *config.Config, logger *slog.Logger) *app {
	return &app{cfg: cfg, logger: logger, metrics: metrics.New()}
}

func (a *app) providers() []ai.Provider {
	client := &http.Client{Timeout: a.cfg.RequestTimeout}
	all := []ai.Provider{openai.New(), anthropic.New(), gemini.New(), huggingface.New()}

	for i, p := range all {
		settings := a.cfg.Provider(p.ID())
		if settings.APIKey != "" {
			p = p.WithAPIKey(settings.APIKey)
		}
		if settings.BaseURL != "" {
			p = p.WithBaseURL(settings.BaseURL)
		}
		all[i] = p.WithHttpClient(client)
	}
	return all
}

// redisClient connects once. Without REDIS_URL it returns nil and the cache
// and rate limiter stay disabled.
func (a *app) redisClient(ctx context.Context) *backend.Client {
	if a.redis != nil || a.cfg.RedisURL == "" {
		return a.redis
	}
	client, err := cache.Connect(ctx, a.cfg.RedisURL)
	if err != nil {
		a.logger.WarnContext(ctx, "redis unavailable, running without cache", slog.String("error", err.Error()))
		return nil
	}
	a.redis = client
	return client
}

func (a *app) orchestrator(ctx context.Context) (*orchestrator.Orchestrator, error) {
	if a.orch != nil {
		return a.orch, nil
	}

	opts := []orchestrator.Option{
		orchestrator.WithLogger(a.logger),
		orchestrator.WithFallbackOrder(a.cfg.FallbackOrder...),
		orchestrator.WithAttemptTimeout(a.cfg.RequestTimeout),
		orchestrator.WithRetry(apperr.RetryStrategyFor(apperr.KindAIProvider)),
		orchestrator.WithObserver(a.metrics),
	}
	if client := a.redisClient(ctx); client != nil {
		a.cache = cache.NewResponseCache(client, cache.WithTTL(a.cfg.CacheTTL), cache.WithLogger(a.logger))
		limiter := cache.NewRateLimiter(client, a.cfg.RateLimit, a.cfg.RateLimitWindow, a.logger)
		opts = append(opts, orchestrator.WithMiddleware(a.cache.Middleware, limiter.Middleware))
	}

	orch, err := orchestrator.New(a.providers(), opts...)
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}
	a.orch = orch
	return orch, nil
}

func (a *app) store() (store.Store, error) {
	if a.history != nil {
		return a.history, nil
	}
	history, err := store.OpenSQLite(a.cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	a.history = history
	return history, nil
}

func (a *app) engine() (*testengine.Engine, error) {
	history, err := a.store()
	if err != nil {
		return nil, err
	}
	return testengine.New(
		testengine.WithStore(history),
		testengine.WithLogger(a.logger),
		testengine.WithObserver(a.metrics),
		testengine.WithValidateOptions(a.credentials()),
	), nil
}

// offlineEngine validates without persistence.
func (a *app) offlineEngine() *testengine.Engine {
	return testengine.New(testengine.WithLogger(a.logger), testengine.WithValidateOptions(a.credentials()))
}

// credentials enables the missing-credential warning for ai nodes.
func (a *app) credentials() validate.Option {
	var configured []ai.ProviderID
	for _, id := range []ai.ProviderID{ai.OpenAI, ai.Anthropic, ai.Google, ai.HuggingFace} {
		if ai.HasCredential(a.cfg.Provider(id).APIKey) {
			configured = append(configured, id)
		}
	}
	return validate.WithConfiguredProviders(configured...)
}

func (a *app) executor(ctx context.Context) (*runtime.Executor, error) {
	orch, err := a.orchestrator(ctx)
	if err != nil {
		return nil, err
	}
	history, err := a.store()
	if err != nil {
		return nil, err
	}
	return runtime.New(orch,
		runtime.WithLogger(a.logger),
		runtime.WithRetry(apperr.RetryStrategyFor(apperr.KindNodeExecution)),
		runtime.WithStore(history),
	), nil
}

func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("failed to close store", slog.String("error", err.Error()))
		}
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

func loggerFor(cfg *config.Config, level, format string) (*slog.Logger, error) {
	if level == "" {
		level = cfg.LogLevel
	}
	if format == "" {
		format = cfg.LogFormat
	}
	parsed, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(parsed, logging.ParseFormat(format)), nil
}
