package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/NouctheCo/Casskai-sub005/internal/llm"
)

// createTextGenerator builds the generative collaborator from configuration.
// Shared by every command that can reach the generative tier.
func createTextGenerator(ctx context.Context, logger *slog.Logger) (*llm.Generator, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = "openai"
	}

	config := llm.Config{
		Provider:    provider,
		Model:       viper.GetString("llm.model"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		MaxRetries:  viper.GetInt("llm.max_retries"),
		RetryDelay:  viper.GetDuration("llm.retry_delay"),
		Timeout:     viper.GetDuration("llm.timeout"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
	}

	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 60 // requests per minute
	}

	apiKey, err := apiKeyFor(provider)
	if err != nil {
		return nil, err
	}
	config.APIKey = apiKey

	return llm.NewGenerator(ctx, config, logger)
}

func apiKeyFor(provider string) (string, error) {
	var configKey, envVar string
	switch provider {
	case "openai":
		configKey, envVar = "llm.openai_api_key", "OPENAI_API_KEY"
	case "anthropic":
		configKey, envVar = "llm.anthropic_api_key", "ANTHROPIC_API_KEY"
	case "gemini":
		configKey, envVar = "llm.gemini_api_key", "GEMINI_API_KEY"
	default:
		return "", fmt.Errorf("unsupported text-generation provider: %s", provider)
	}

	apiKey := viper.GetString(configKey)
	if apiKey == "" {
		apiKey = os.Getenv(envVar)
	}
	if apiKey == "" {
		return "", fmt.Errorf("%s API key not found in config or %s environment variable", provider, envVar)
	}
	return apiKey, nil
}
