// Package config loads runtime settings.
//
// Load order:
//  1. .env in the working directory (optional, never overrides the process env)
//  2. built-in defaults
//  3. the YAML file named by the path argument or AGENTGRAPH_CONFIG
//  4. environment variables, which win over YAML
//
// Provider credentials are read from the environment only.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/leofalp/agentgraph/providers/ai"
)

// Provider holds one provider's connection settings.
type Provider struct {
	APIKey  string `yaml:"-"`
	BaseURL string `yaml:"base_url"`
}

// Config is the resolved application configuration.
type Config struct {
	OpenAI      Provider `yaml:"openai"`
	Anthropic   Provider `yaml:"anthropic"`
	Google      Provider `yaml:"google"`
	HuggingFace Provider `yaml:"huggingface"`

	FallbackOrder  []ai.ProviderID `yaml:"fallback_order"`
	RequestTimeout time.Duration   `yaml:"request_timeout"`

	RedisURL        string        `yaml:"redis_url"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	RateLimit       int           `yaml:"rate_limit"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`

	DatabasePath string `yaml:"database_path"`
	ListenAddr   string `yaml:"listen_addr"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		FallbackOrder:   []ai.ProviderID{ai.Anthropic, ai.Google, ai.HuggingFace, ai.OpenAI},
		RequestTimeout:  60 * time.Second,
		CacheTTL:        time.Hour,
		RateLimit:       100,
		RateLimitWindow: time.Hour,
		DatabasePath:    "agentgraph.db",
		ListenAddr:      ":8080",
		LogLevel:        "INFO",
		LogFormat:       "text",
	}
}

// Load resolves the configuration. An empty path falls back to
// AGENTGRAPH_CONFIG; a missing default file is not an error, a missing
// explicit one is.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("AGENTGRAPH_CONFIG")
	}
	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.validate()
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	c.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	c.Google.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	c.HuggingFace.APIKey = firstEnv("HUGGINGFACE_API_KEY", "HF_TOKEN")

	setString(&c.OpenAI.BaseURL, "OPENAI_API_BASE_URL")
	setString(&c.Anthropic.BaseURL, "ANTHROPIC_API_BASE_URL")
	setString(&c.Google.BaseURL, "GEMINI_API_BASE_URL")
	setString(&c.HuggingFace.BaseURL, "HUGGINGFACE_API_BASE_URL")

	if order := os.Getenv("AGENTGRAPH_FALLBACK_ORDER"); order != "" {
		c.FallbackOrder = nil
		for _, name := range strings.Split(order, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.FallbackOrder = append(c.FallbackOrder, ai.ProviderID(name))
			}
		}
	}

	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.DatabasePath, "AGENTGRAPH_DB_PATH")
	setString(&c.ListenAddr, "AGENTGRAPH_LISTEN_ADDR")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "AGENTGRAPH_LOG_FORMAT")
	setString(&c.LogLevel, "AGENTGRAPH_LOG_LEVEL")

	var err error
	if c.RequestTimeout, err = envDuration("AGENTGRAPH_REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	if c.CacheTTL, err = envDuration("AGENTGRAPH_CACHE_TTL", c.CacheTTL); err != nil {
		return err
	}
	if c.RateLimitWindow, err = envDuration("AGENTGRAPH_RATE_LIMIT_WINDOW", c.RateLimitWindow); err != nil {
		return err
	}
	if raw := os.Getenv("AGENTGRAPH_RATE_LIMIT"); raw != "" {
		if c.RateLimit, err = strconv.Atoi(raw); err != nil {
			return fmt.Errorf("AGENTGRAPH_RATE_LIMIT: %w", err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	var errs []error
	for i, id := range c.FallbackOrder {
		parsed, ok := ai.ParseProviderID(string(id))
		if !ok {
			errs = append(errs, fmt.Errorf("fallback order: unknown provider %q", id))
			continue
		}
		c.FallbackOrder[i] = parsed
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("rate limit must not be negative"))
	}
	return errors.Join(errs...)
}

// Provider returns the settings for id.
func (c *Config) Provider(id ai.ProviderID) Provider {
	switch id {
	case ai.OpenAI:
		return c.OpenAI
	case ai.Anthropic:
		return c.Anthropic
	case ai.Google:
		return c.Google
	case ai.HuggingFace:
		return c.HuggingFace
	}
	return Provider{}
}

// String summarises the configuration with credentials hidden.
func (c *Config) String() string {
	configured := make([]string, 0, 4)
	for _, id := range []ai.ProviderID{ai.OpenAI, ai.Anthropic, ai.Google, ai.HuggingFace} {
		if ai.HasCredential(c.Provider(id).APIKey) {
			configured = append(configured, string(id))
		}
	}
	return fmt.Sprintf("Config{Providers: [%s], Redis: %s, DB: %s, Listen: %s}",
		strings.Join(configured, ","), maskPassword(c.RedisURL), c.DatabasePath, c.ListenAddr)
}

var passwordPattern = regexp.MustCompile(`(://[^:/@]*:)([^@]+)(@)`)

func maskPassword(url string) string {
	return passwordPattern.ReplaceAllString(url, "${1}***${3}")
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
