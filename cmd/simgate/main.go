package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/qubitworks/simgate/api"
	"github.com/qubitworks/simgate/internal/config"
	"github.com/qubitworks/simgate/internal/ratelimit"
	"github.com/qubitworks/simgate/internal/server"
	"github.com/qubitworks/simgate/internal/storage"
	"github.com/qubitworks/simgate/internal/summary"
	"github.com/qubitworks/simgate/internal/telemetry"
	"github.com/qubitworks/simgate/internal/upstream"
	"github.com/qubitworks/simgate/ui"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("SIMGATE_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("simgate starting", "version", version, "port", cfg.Port)

	otelShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:    cfg.OTELEndpoint,
		Insecure:    cfg.OTELInsecure,
		ServiceName: cfg.ServiceName,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	store, err := storage.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	limiter, err := newLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = limiter.Close() }()

	completer, err := newCompleter(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(server.ServerConfig{
		Store:               store,
		Summary:             summary.New(store, logger),
		Completer:           completer,
		Limiter:             limiter,
		Logger:              logger,
		UIFS:                ui.FS(),
		OpenAPISpec:         api.OpenAPISpec,
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	// Start HTTP server in background.
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	slog.Info("simgate shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("simgate stopped")
	return nil
}

// newLimiter picks the rate limiter backend. Redis shares one window across
// replicas; the in-memory fallback is per-process.
func newLimiter(ctx context.Context, cfg config.Config, logger *slog.Logger) (ratelimit.Limiter, error) {
	if !cfg.RateLimitEnabled {
		logger.Info("rate limiting: disabled")
		return ratelimit.NoopLimiter{}, nil
	}

	if cfg.RedisURL != "" {
		limiter, err := ratelimit.NewRedisLimiter(ctx, cfg.RedisURL, cfg.RateLimit, cfg.RateWindow)
		if err != nil {
			return nil, fmt.Errorf("ratelimit: %w", err)
		}
		logger.Info("rate limiting: redis (shared sliding window)",
			"limit", cfg.RateLimit, "window", cfg.RateWindow.String())
		return limiter, nil
	}

	logger.Info("rate limiting: memory (per-process sliding window)",
		"limit", cfg.RateLimit, "window", cfg.RateWindow.String())
	return ratelimit.NewMemoryLimiter(cfg.RateLimit, cfg.RateWindow), nil
}

// newCompleter builds the chat-completion client for the configured provider.
func newCompleter(cfg config.Config, logger *slog.Logger) (upstream.Completer, error) {
	switch cfg.UpstreamProvider {
	case config.ProviderOpenAI:
		logger.Info("upstream: openai", "model", cfg.UpstreamModel)
		return upstream.NewOpenAI(upstream.Config{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.UpstreamModel,
			BaseURL: cfg.UpstreamBaseURL,
			Timeout: cfg.UpstreamTimeout,
		}), nil
	case config.ProviderOpenRouter:
		logger.Info("upstream: openrouter", "model", cfg.UpstreamModel)
		return upstream.NewOpenRouter(upstream.Config{
			APIKey:  cfg.OpenRouterAPIKey,
			Model:   cfg.UpstreamModel,
			BaseURL: cfg.UpstreamBaseURL,
			Timeout: cfg.UpstreamTimeout,
		}), nil
	default:
		// config.Load validates the provider name; this is unreachable after
		// a successful Load.
		return nil, fmt.Errorf("upstream: unknown provider %q", cfg.UpstreamProvider)
	}
}
