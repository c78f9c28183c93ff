package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"inlay/internal/prompt"
)

// AnthropicProvider serves completions from the Anthropic messages API.
// Chat-tuned, so infill is expressed with explicit before/after blocks.
type AnthropicProvider struct {
	cfg     Config
	client  anthropic.Client
	limiter *rate.Limiter
}

const defaultAnthropicModel = "claude-3-5-haiku-latest"

// NewAnthropicProvider creates the provider from a resolved config.
func NewAnthropicProvider(cfg Config) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicProvider{
		cfg:    cfg,
		client: anthropic.NewClient(opts...),
		// Keystroke-rate triggers must not turn into request storms.
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 2),
	}, nil
}

func (p *AnthropicProvider) ID() string          { return "anthropic" }
func (p *AnthropicProvider) Model() string       { return p.cfg.Model }
func (p *AnthropicProvider) Hints() prompt.Hints { return p.cfg.Hints }

// SupportsInfill is true: the chat encoding carries the suffix explicitly.
func (p *AnthropicProvider) SupportsInfill() bool { return true }

func (p *AnthropicProvider) GenerateCompletions(ctx context.Context, req Request) (<-chan Batch, error) {
	system, user := chatPrompt(p, req)
	gen := func(ctx context.Context) (string, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
		resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(p.cfg.Model),
			MaxTokens: 256,
			System: []anthropic.TextBlockParam{
				{Text: system},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
			},
			StopSequences: stopSequences(req),
			Temperature:   anthropic.Float(0.2),
		})
		if err != nil {
			return "", fmt.Errorf("anthropic API call failed: %w", err)
		}
		var text string
		for _, block := range resp.Content {
			if block.Type == "text" {
				text += block.Text
			}
		}
		if text == "" {
			return "", ErrEmptyCompletion
		}
		return text, nil
	}
	return fanOut(ctx, p, req, p.cfg.FirstCompletionTimeout, gen), nil
}
