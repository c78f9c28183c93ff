// Package config loads and watches inlay's user configuration.
// All settings live in .inlay/config.json; environment variables override
// API keys and the active provider so CI and editor hosts can inject them.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UserConfig is the single source of truth for configuration, loaded from
// .inlay/config.json.
//
// Supported models by provider:
//   - anthropic: claude-sonnet-4-5, claude-3-5-haiku-latest
//   - openai:    gpt-4o, gpt-4o-mini, or any OpenAI-compatible model via base_url
//   - gemini:    gemini-2.5-flash, gemini-2.5-pro
//   - ollama:    any local FIM-capable model (codellama, deepseek-coder, starcoder2)
type UserConfig struct {
	// Provider selection (anthropic, openai, gemini, ollama)
	Provider string `json:"provider,omitempty"`
	// Optional model override for the active provider.
	Model string `json:"model,omitempty"`

	// API keys per provider. Env vars take precedence (ANTHROPIC_API_KEY,
	// OPENAI_API_KEY, GEMINI_API_KEY).
	AnthropicAPIKey string `json:"anthropic_api_key,omitempty"`
	OpenAIAPIKey    string `json:"openai_api_key,omitempty"`
	GeminiAPIKey    string `json:"gemini_api_key,omitempty"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways,
	// remote Ollama hosts).
	BaseURL string `json:"base_url,omitempty"`

	// ContextStrategy selects the retrieval composition
	// (none, jaccard-similarity, recent-copy, recent-edits, recent-edits-1m,
	// recent-edits-5m, lsp-light, bfg, bfg-mixed, tsc-mixed,
	// recent-edits-mixed). Empty means jaccard-similarity.
	ContextStrategy string `json:"context_strategy,omitempty"`

	// TriggerDelayMs is the fixed debounce applied to every automatic
	// trigger, independent of the adaptive delay. Default 25ms.
	TriggerDelayMs *int `json:"trigger_delay_ms,omitempty"`

	// Languages maps languageId -> enabled. Missing entries default to true.
	Languages map[string]bool `json:"languages,omitempty"`

	// Completions requested per trigger (parallel streams). Default 1.
	Completions int `json:"completions,omitempty"`

	// Delay feature flags (see internal/delay).
	DisableArtificialDelay bool `json:"disable_artificial_delay,omitempty"`
	UserLatencyEnabled     bool `json:"user_latency_enabled,omitempty"`

	// Compare lists the provider/model/strategy triples exercised by the
	// side-by-side comparison command.
	Compare []CompareEntry `json:"compare,omitempty"`

	// Timeouts overrides the per-provider timeout table.
	Timeouts *ProviderTimeouts `json:"timeouts,omitempty"`

	Logging LoggingConfig `json:"logging,omitempty"`
}

// CompareEntry is one branch of a multi-provider comparison.
type CompareEntry struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

// LoggingConfig gates the category file logger.
type LoggingConfig struct {
	DebugMode  bool            `json:"debug_mode,omitempty"`
	Categories map[string]bool `json:"categories,omitempty"`
	Level      string          `json:"level,omitempty"`
}

// DefaultConfigPath returns .inlay/config.json under the workspace, honoring
// INLAY_CONFIG as an override.
func DefaultConfigPath() string {
	if p := os.Getenv("INLAY_CONFIG"); p != "" {
		return p
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return filepath.Join(cwd, ".inlay", "config.json")
}

// Load reads the config file and applies environment overrides. A missing
// file is not an error; env vars alone can configure a provider.
func Load(path string) (*UserConfig, error) {
	cfg := &UserConfig{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults + env only.
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *UserConfig) applyEnv() {
	if v := os.Getenv("INLAY_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("INLAY_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.AnthropicAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv("INLAY_CONTEXT_STRATEGY"); v != "" {
		c.ContextStrategy = v
	}
}

func (c *UserConfig) applyDefaults() {
	if c.ContextStrategy == "" {
		c.ContextStrategy = "jaccard-similarity"
	}
	if c.Completions <= 0 {
		c.Completions = 1
	}
	if c.TriggerDelayMs == nil {
		d := 25
		c.TriggerDelayMs = &d
	}
}

// ActiveProvider resolves the provider id and its API key. When no provider
// is set explicitly, the first provider with a key wins; ollama needs none.
func (c *UserConfig) ActiveProvider() (provider, apiKey string, err error) {
	keyFor := func(p string) string {
		switch p {
		case "anthropic":
			return c.AnthropicAPIKey
		case "openai":
			return c.OpenAIAPIKey
		case "gemini":
			return c.GeminiAPIKey
		case "ollama":
			return "local" // no key required
		}
		return ""
	}
	if c.Provider != "" {
		key := keyFor(c.Provider)
		if key == "" {
			return "", "", fmt.Errorf("provider %q configured but no API key found", c.Provider)
		}
		return c.Provider, key, nil
	}
	for _, p := range []string{"anthropic", "openai", "gemini"} {
		if key := keyFor(p); key != "" {
			return p, key, nil
		}
	}
	return "", "", fmt.Errorf("no provider configured; set provider in %s or one of ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY", DefaultConfigPath())
}

// LanguageEnabled reports per-language enablement. Missing entries and a nil
// map both mean enabled; "*" sets the default for unlisted languages.
func (c *UserConfig) LanguageEnabled(languageID string) bool {
	if c.Languages == nil {
		return true
	}
	if v, ok := c.Languages[languageID]; ok {
		return v
	}
	if v, ok := c.Languages["*"]; ok {
		return v
	}
	return true
}

// TriggerDelay returns the fixed debounce in milliseconds.
func (c *UserConfig) TriggerDelay() int {
	if c.TriggerDelayMs == nil {
		return 25
	}
	return *c.TriggerDelayMs
}
