package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "jaccard-similarity", cfg.ContextStrategy)
	assert.Equal(t, 1, cfg.Completions)
	assert.Equal(t, 25, cfg.TriggerDelay())
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeConfig(t, "{not json")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `{
		"provider": "ollama",
		"model": "codellama:13b",
		"context_strategy": "recent-edits-mixed",
		"trigger_delay_ms": 0,
		"completions": 3,
		"disable_artificial_delay": true,
		"languages": {"markdown": false, "*": true},
		"timeouts": {"first_completion_ms": {"ollama": 2000}, "retrieval_ms": 75}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, "codellama:13b", cfg.Model)
	assert.Equal(t, "recent-edits-mixed", cfg.ContextStrategy)
	assert.Equal(t, 0, cfg.TriggerDelay(), "explicit zero disables the fixed debounce")
	assert.Equal(t, 3, cfg.Completions)
	assert.True(t, cfg.DisableArtificialDelay)

	assert.Equal(t, 2*time.Second, cfg.Timeouts.FirstCompletion("ollama"))
	assert.Equal(t, 7*time.Second, cfg.Timeouts.FirstCompletion("anthropic"), "unset provider keeps default")
	assert.Equal(t, 75*time.Millisecond, cfg.Timeouts.Retrieval())
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `{"provider": "openai", "openai_api_key": "file-key"}`)
	t.Setenv("INLAY_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	t.Setenv("INLAY_CONTEXT_STRATEGY", "bfg")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "env-key", cfg.AnthropicAPIKey)
	assert.Equal(t, "bfg", cfg.ContextStrategy)
}

func TestActiveProvider(t *testing.T) {
	cfg := &UserConfig{Provider: "anthropic", AnthropicAPIKey: "k"}
	p, key, err := cfg.ActiveProvider()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p)
	assert.Equal(t, "k", key)

	// Explicit provider without a key is a hard error.
	cfg = &UserConfig{Provider: "openai"}
	_, _, err = cfg.ActiveProvider()
	require.Error(t, err)

	// Ollama never needs a key.
	cfg = &UserConfig{Provider: "ollama"}
	p, _, err = cfg.ActiveProvider()
	require.NoError(t, err)
	assert.Equal(t, "ollama", p)

	// No explicit provider: first provider with a key wins.
	cfg = &UserConfig{GeminiAPIKey: "g"}
	p, key, err = cfg.ActiveProvider()
	require.NoError(t, err)
	assert.Equal(t, "gemini", p)
	assert.Equal(t, "g", key)

	// Nothing configured at all.
	_, _, err = (&UserConfig{}).ActiveProvider()
	require.Error(t, err)
}

func TestLanguageEnabled(t *testing.T) {
	cfg := &UserConfig{}
	assert.True(t, cfg.LanguageEnabled("go"), "nil map means everything on")

	cfg.Languages = map[string]bool{"markdown": false}
	assert.False(t, cfg.LanguageEnabled("markdown"))
	assert.True(t, cfg.LanguageEnabled("go"))

	cfg.Languages = map[string]bool{"go": true, "*": false}
	assert.True(t, cfg.LanguageEnabled("go"))
	assert.False(t, cfg.LanguageEnabled("python"), "star entry sets the default")
}

func TestDefaultConfigPathEnvOverride(t *testing.T) {
	t.Setenv("INLAY_CONFIG", "/tmp/custom.json")
	assert.Equal(t, "/tmp/custom.json", DefaultConfigPath())
}
