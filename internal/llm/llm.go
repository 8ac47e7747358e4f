// Package llm provides domain.Completer implementations for the chat pipeline.
package llm

import (
	"fmt"
	"os"
	"time"

	"argos/internal/config"
	"argos/internal/domain"
)

// New creates a Completer from the given LLM config. The API key is read
// from the environment variable the config names.
func New(cfg config.LLMConfig) (domain.Completer, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropic(AnthropicConfig{
			APIKey:    key,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   timeout,
		}), nil
	case "openai":
		return NewOpenAI(OpenAIConfig{
			APIKey:    key,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q (valid: anthropic, openai)", cfg.Provider)
	}
}
