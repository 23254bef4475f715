// Package llm implements the generative-text collaborator used by the
// categorization resolver. Providers are interchangeable and treated as
// unreliable: any failure or timeout surfaces as an error the resolver
// degrades around.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Client defines the interface for text-generation providers.
type Client interface {
	Complete(ctx context.Context, prompt, systemInstructions string) (string, error)
}

// Config holds configuration for the generative collaborator.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	RateLimit   int // requests per minute
	Temperature float64
	MaxTokens   int
}

// NewClient creates a provider client based on configuration.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	case "gemini":
		return newGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported text-generation provider: %s", cfg.Provider)
	}
}
