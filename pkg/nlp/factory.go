package nlp

import (
	"fmt"
	"log/slog"
	"strings"
)

// NewClient constructs a Client for the configured provider. Supported
// providers are "openai" (including any OpenAI-compatible endpoint via
// BaseURL) and "gemini". An empty provider defaults to openai.
func NewClient(cfg *Config, logger *slog.Logger) (Client, error) {
	if cfg == nil {
		return nil, ErrNotConfigured
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewOpenAIClient(cfg, logger)
	case "gemini", "google":
		return NewGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
