package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/NouctheCo/Casskai-sub005/internal/common"
	"github.com/NouctheCo/Casskai-sub005/internal/service"
)

// Generator wraps a provider client with rate limiting, retries and a hard
// per-call timeout. It implements service.TextGenerator.
type Generator struct {
	client      Client
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
	timeout     time.Duration
}

// NewGenerator creates a rate-limited, retrying text generator.
func NewGenerator(ctx context.Context, cfg Config, logger *slog.Logger) (*Generator, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-generation client: %w", err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Generator{
		client:      client,
		logger:      logger,
		rateLimiter: newRateLimiter(cfg.RateLimit),
		retryOpts:   retryOpts,
		timeout:     timeout,
	}, nil
}

// Complete sends the prompt to the provider. The call is bounded by the
// configured timeout so a stalled provider never blocks the suggestion
// pipeline.
func (g *Generator) Complete(ctx context.Context, prompt, systemInstructions string) (string, error) {
	if err := g.rateLimiter.wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit error: %w", err)
	}

	var response string

	err := common.WithRetry(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		text, err := g.client.Complete(callCtx, prompt, systemInstructions)
		if err != nil {
			g.logger.Warn("text-generation attempt failed", "error", err)
			return &common.RetryableError{Err: err, Retryable: true}
		}

		response = text
		return nil
	}, g.retryOpts)

	if err != nil {
		return "", fmt.Errorf("text generation failed: %w", err)
	}

	return response, nil
}

// Close stops background goroutines.
func (g *Generator) Close() error {
	if g.rateLimiter != nil {
		g.rateLimiter.Close()
	}
	return nil
}
