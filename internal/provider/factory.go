package provider

import (
	"context"
	"fmt"

	"inlay/internal/config"
	"inlay/internal/prompt"
)

// Default context budgets per provider family. Hosted chat APIs take large
// prompts comfortably; the local FIM path stays lean to keep latency down.
var defaultHints = map[string]prompt.Hints{
	"anthropic": {TotalChars: 16000, PrefixChars: 8000, SuffixChars: 4000},
	"openai":    {TotalChars: 16000, PrefixChars: 8000, SuffixChars: 4000},
	"gemini":    {TotalChars: 16000, PrefixChars: 8000, SuffixChars: 4000},
	"ollama":    {TotalChars: 6000, PrefixChars: 3000, SuffixChars: 1500},
}

// New constructs a provider keyed on id. Unknown ids are a configuration
// error; callers surface it once and disable completion until config changes.
func New(ctx context.Context, cfg Config) (Provider, error) {
	if cfg.Hints == (prompt.Hints{}) {
		if h, ok := defaultHints[cfg.ID]; ok {
			cfg.Hints = h
		}
	}
	switch cfg.ID {
	case "anthropic":
		return NewAnthropicProvider(cfg)
	case "openai":
		return NewOpenAIProvider(cfg)
	case "gemini":
		return NewGeminiProvider(ctx, cfg)
	case "ollama":
		return NewOllamaProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown provider: %s (valid: anthropic, openai, gemini, ollama)", cfg.ID)
	}
}

// FromUserConfig resolves the active provider from user configuration and
// builds it with the configured timeout table.
func FromUserConfig(ctx context.Context, uc *config.UserConfig) (Provider, error) {
	id, key, err := uc.ActiveProvider()
	if err != nil {
		return nil, err
	}
	return New(ctx, Config{
		ID:                     id,
		Model:                  uc.Model,
		APIKey:                 key,
		BaseURL:                uc.BaseURL,
		Multiline:              true,
		FirstCompletionTimeout: uc.Timeouts.FirstCompletion(id),
		HTTPTimeout:            uc.Timeouts.HTTPClient(),
	})
}
