package llm

import (
	"fmt"
	"log/slog"

	"github.com/parleyhq/parley/internal/config"
)

// NewProvider builds the backend selected by configuration. An empty
// provider name auto-detects from credentials: anthropic wins when its
// key is present, then openai, and ollama is the no-credential
// fallback since a local daemon needs none.
func NewProvider(cfg *config.Config) (Provider, error) {
	name := cfg.LLM.Provider
	if name == "" {
		name = detectProvider(cfg)
		slog.Default().With("component", "llm").Info("auto-detected provider", "provider", name)
	}

	switch name {
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:       cfg.LLM.AnthropicAPIKey,
			MaxRetries:   cfg.LLM.MaxRetries,
			DefaultModel: cfg.LLM.Model,
		})
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:       cfg.LLM.OpenAIAPIKey,
			MaxRetries:   cfg.LLM.MaxRetries,
			DefaultModel: cfg.LLM.Model,
		})
	case "ollama":
		return NewOllamaProvider(OllamaConfig{
			BaseURL:      cfg.LLM.OllamaURL,
			DefaultModel: cfg.LLM.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", name)
	}
}

func detectProvider(cfg *config.Config) string {
	if cfg.LLM.AnthropicAPIKey != "" {
		return "anthropic"
	}
	if cfg.LLM.OpenAIAPIKey != "" {
		return "openai"
	}
	return "ollama"
}
