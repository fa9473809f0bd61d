package cli

import (
	"fmt"

	"github.com/cloo-solutions/podquery/internal/config"
	"github.com/cloo-solutions/podquery/internal/llm"
	"github.com/cloo-solutions/podquery/internal/openai"
)

// ModelTransport returns the live transport for the configured model
// provider. Missing credentials are a configuration error.
func ModelTransport(cfg *config.Config) (llm.Transport, error) {
	if err := cfg.RequireModel(); err != nil {
		return nil, err
	}

	switch cfg.ModelProvider {
	case config.ProviderOpenAI:
		t, err := openai.NewTransport(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.RequestTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create openai transport: %w", err)
		}
		return t, nil
	default:
		return llm.NewAnthropicTransport(llm.AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			BaseURL: cfg.AnthropicBaseURL,
			Version: cfg.AnthropicVersion,
			Timeout: cfg.RequestTimeout,
		}), nil
	}
}
