package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/leofalp/agentgraph/core/client"
	"github.com/leofalp/agentgraph/providers/ai"
)

const (
	DefaultTTL    = time.Hour
	DefaultPrefix = "ai_cache:"
)

// ResponseCache stores successful completions in Redis.
type ResponseCache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a ResponseCache.
type Option func(*ResponseCache)

// WithTTL sets the entry expiration. Zero keeps DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *ResponseCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *ResponseCache) { c.prefix = prefix }
}

// WithLogger sets the logger used for fail-open warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ResponseCache) { c.logger = logger }
}

// NewResponseCache wraps an existing client.
func NewResponseCache(client *backend.Client, opts ...Option) *ResponseCache {
	c := &ResponseCache{
		client: client,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect parses a redis:// URL and returns a client for it.
func Connect(ctx context.Context, url string) (*backend.Client, error) {
	options, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := backend.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// Key returns ai_cache:<provider>:<model>:<hash>, where hash is the first 16
// hex digits of the SHA-256 of the messages, system prompt and sampling
// settings.
func (c *ResponseCache) Key(provider ai.ProviderID, request ai.ChatRequest) string {
	h := sha256.New()
	for _, message := range request.Messages {
		h.Write([]byte(message.Role))
		h.Write([]byte{0})
		h.Write([]byte(message.Content))
		h.Write([]byte{0})
	}
	h.Write([]byte(request.SystemPrompt))
	if config := request.GenerationConfig; config != nil {
		fmt.Fprintf(h, "|%g|%d", config.Temperature, config.MaxTokens)
	}
	if request.JSONMode {
		h.Write([]byte("|json"))
	}

	return c.prefix + string(provider) + ":" + request.Model + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

// Get returns the cached response, or nil on a miss.
func (c *ResponseCache) Get(ctx context.Context, provider ai.ProviderID, request ai.ChatRequest) (*ai.ChatResponse, error) {
	raw, err := c.client.Get(ctx, c.Key(provider, request)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var response ai.ChatResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &response, nil
}

// Set stores response under the request key with the configured TTL.
func (c *ResponseCache) Set(ctx context.Context, provider ai.ProviderID, request ai.ChatRequest, response *ai.ChatResponse) error {
	raw, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.Key(provider, request), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Middleware returns the caching layer for provider. Only complete answers
// with content are stored.
func (c *ResponseCache) Middleware(provider ai.ProviderID) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				cached, err := c.Get(ctx, provider, request)
				if err != nil {
					c.logger.WarnContext(ctx, "response cache unavailable", slog.String("provider", provider.String()), slog.String("error", err.Error()))
				}
				if cached != nil {
					c.logger.DebugContext(ctx, "response cache hit", slog.String("provider", provider.String()), slog.String("model", request.Model))
					return cached, nil
				}

				response, err := next(ctx, request)
				if err != nil {
					return nil, err
				}

				if strings.TrimSpace(response.Content) != "" {
					if err := c.Set(ctx, provider, request, response); err != nil {
						c.logger.WarnContext(ctx, "failed to cache response", slog.String("provider", provider.String()), slog.String("error", err.Error()))
					}
				}
				return response, nil
			}
		},
	}
}

// Stats counts cache and rate-limit keys.
type Stats struct {
	CacheKeys     int `json:"aiCacheKeys"`
	RateLimitKeys int `json:"rateLimitKeys"`
}

// Stats scans the keyspace; it is meant for diagnostics, not hot paths.
func (c *ResponseCache) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	var err error
	if stats.CacheKeys, err = countKeys(ctx, c.client, c.prefix+"*"); err != nil {
		return stats, err
	}
	if stats.RateLimitKeys, err = countKeys(ctx, c.client, DefaultRateLimitPrefix+"*"); err != nil {
		return stats, err
	}
	return stats, nil
}

func countKeys(ctx context.Context, client *backend.Client, pattern string) (int, error) {
	count := 0
	iter := client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan %s: %w", pattern, err)
	}
	return count, nil
}
