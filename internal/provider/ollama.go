package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"inlay/internal/prompt"
)

// OllamaProvider serves completions from a local Ollama server using raw
// fill-in-the-middle prompting. The only backend with native infill tokens;
// also the only one reachable without an API key.
type OllamaProvider struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	fim        FIMTokens
}

// FIMTokens holds the infill markers for the model family.
type FIMTokens struct {
	Prefix string
	Suffix string
	Middle string
}

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "deepseek-coder:6.7b-base"
)

// Defaults follow the deepseek/starcoder convention; codellama users
// override via config.
var defaultFIMTokens = FIMTokens{
	Prefix: "<|fim▁begin|>",
	Suffix: "<|fim▁hole|>",
	Middle: "<|fim▁end|>",
}

// NewOllamaProvider creates the provider from a resolved config.
func NewOllamaProvider(cfg Config) (*OllamaProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOllamaModel
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		// Local servers fall over faster than hosted ones under bursts.
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 1),
		fim:     defaultFIMTokens,
	}, nil
}

func (p *OllamaProvider) ID() string           { return "ollama" }
func (p *OllamaProvider) Model() string        { return p.cfg.Model }
func (p *OllamaProvider) Hints() prompt.Hints  { return p.cfg.Hints }
func (p *OllamaProvider) SupportsInfill() bool { return true }

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Raw     bool          `json:"raw"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64  `json:"temperature"`
	NumPredict  int      `json:"num_predict"`
	Stop        []string `json:"stop,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (p *OllamaProvider) GenerateCompletions(ctx context.Context, req Request) (<-chan Batch, error) {
	raw := p.buildPrompt(req)
	gen := func(ctx context.Context) (string, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
		body, err := json.Marshal(ollamaRequest{
			Model:  p.cfg.Model,
			Prompt: raw,
			Raw:    true,
			Stream: false,
			Options: ollamaOptions{
				Temperature: 0.2,
				NumPredict:  256,
				Stop:        stopSequences(req),
			},
		})
		if err != nil {
			return "", fmt.Errorf("failed to marshal request: %w", err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", p.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := p.httpClient.Do(httpReq)
		if err != nil {
			return "", fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("ollama request failed with status %d: %s", resp.StatusCode, string(data))
		}

		var or ollamaResponse
		if err := json.Unmarshal(data, &or); err != nil {
			return "", fmt.Errorf("failed to parse response: %w", err)
		}
		if or.Error != "" {
			return "", fmt.Errorf("ollama error: %s", or.Error)
		}
		if or.Response == "" {
			return "", ErrEmptyCompletion
		}
		return or.Response, nil
	}
	return fanOut(ctx, p, req, p.cfg.FirstCompletionTimeout, gen), nil
}

// buildPrompt renders either an infill prompt with FIM markers or a plain
// continuation prompt, with snippet context inlined as comments above.
func (p *OllamaProvider) buildPrompt(req Request) string {
	context := req.Prompt.SnippetBlock(prompt.CommentPrefix(req.LanguageID)) + req.Prompt.FileHeader
	if useInfill(p, req) {
		// prefix-marker, prefix, hole-marker, suffix, end-marker; the model
		// generates the hole content after the end marker.
		return p.fim.Prefix + context + req.Prompt.Prefix + p.fim.Suffix + req.Prompt.Suffix + p.fim.Middle
	}
	return context + req.Prompt.Prefix
}
