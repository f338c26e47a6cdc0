// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Upstream provider names accepted by SIMGATE_UPSTREAM.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Database settings. A postgres:// or postgresql:// URL selects the
	// Postgres backend; anything else is treated as a SQLite file path.
	DatabaseURL string

	// Redis settings. When set, rate limiting uses a shared Redis window
	// instead of per-process memory.
	RedisURL string

	// Upstream completion provider settings.
	UpstreamProvider string // "openrouter" or "openai"
	UpstreamModel    string
	UpstreamBaseURL  string // Override for tests or self-hosted gateways.
	UpstreamTimeout  time.Duration
	OpenRouterAPIKey string
	OpenAIAPIKey     string

	// Rate limit settings for the question endpoint.
	RateLimitEnabled bool
	RateLimit        int           // Admitted requests per window per client.
	RateWindow       time.Duration // Sliding window length.

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel            string
	MaxRequestBodyBytes int64
}

// Load reads configuration from environment variables with sensible defaults.
// Invalid values are collected and reported together so a misconfigured
// deployment fails with one complete message instead of one variable at a time.
func Load() (Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	port, err := envInt("SIMGATE_PORT", 5002)
	collect(err)
	readTimeout, err := envDuration("SIMGATE_READ_TIMEOUT", 30*time.Second)
	collect(err)
	// The write timeout must outlast the upstream timeout or the gateway cuts
	// the connection before the 504 body is written.
	writeTimeout, err := envDuration("SIMGATE_WRITE_TIMEOUT", 60*time.Second)
	collect(err)
	upstreamTimeout, err := envDuration("SIMGATE_UPSTREAM_TIMEOUT", 30*time.Second)
	collect(err)
	rateLimitEnabled, err := envBool("SIMGATE_RATE_LIMIT_ENABLED", true)
	collect(err)
	rateLimit, err := envInt("SIMGATE_RATE_LIMIT", 5)
	collect(err)
	rateWindow, err := envDuration("SIMGATE_RATE_WINDOW", 60*time.Second)
	collect(err)
	otelInsecure, err := envBool("OTEL_EXPORTER_OTLP_INSECURE", false)
	collect(err)
	maxBody, err := envInt("SIMGATE_MAX_REQUEST_BODY_BYTES", 1*1024*1024)
	collect(err)

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}

	cfg := Config{
		Port:                port,
		ReadTimeout:         readTimeout,
		WriteTimeout:        writeTimeout,
		DatabaseURL:         envStr("DATABASE_URL", "quantum_sims.db"),
		RedisURL:            envStr("REDIS_URL", ""),
		UpstreamProvider:    envStr("SIMGATE_UPSTREAM", ProviderOpenRouter),
		UpstreamModel:       envStr("SIMGATE_UPSTREAM_MODEL", ""),
		UpstreamBaseURL:     envStr("SIMGATE_UPSTREAM_BASE_URL", ""),
		UpstreamTimeout:     upstreamTimeout,
		OpenRouterAPIKey:    envStr("OPENROUTER_API_KEY", ""),
		OpenAIAPIKey:        envStr("OPENAI_API_KEY", ""),
		RateLimitEnabled:    rateLimitEnabled,
		RateLimit:           rateLimit,
		RateWindow:          rateWindow,
		OTELEndpoint:        envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:        otelInsecure,
		ServiceName:         envStr("OTEL_SERVICE_NAME", "simgate"),
		LogLevel:            envStr("SIMGATE_LOG_LEVEL", "info"),
		MaxRequestBodyBytes: int64(maxBody),
	}

	if cfg.UpstreamModel == "" {
		switch cfg.UpstreamProvider {
		case ProviderOpenAI:
			cfg.UpstreamModel = "gpt-4o"
		default:
			cfg.UpstreamModel = "openai/gpt-4o"
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
// A missing upstream credential is fatal at startup, not a per-request error.
func (c Config) Validate() error {
	switch c.UpstreamProvider {
	case ProviderOpenRouter:
		if c.OpenRouterAPIKey == "" {
			return fmt.Errorf("config: OPENROUTER_API_KEY is required")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("config: OPENAI_API_KEY is required when SIMGATE_UPSTREAM=openai")
		}
	default:
		return fmt.Errorf("config: unknown SIMGATE_UPSTREAM %q (want %q or %q)",
			c.UpstreamProvider, ProviderOpenRouter, ProviderOpenAI)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("config: SIMGATE_RATE_LIMIT must be positive")
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("config: SIMGATE_RATE_WINDOW must be positive")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("config: SIMGATE_UPSTREAM_TIMEOUT must be positive")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("config: SIMGATE_MAX_REQUEST_BODY_BYTES must be positive")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	return b, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}
