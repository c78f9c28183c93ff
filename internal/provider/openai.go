package provider

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"inlay/internal/prompt"
)

// OpenAIProvider serves completions from the OpenAI chat API, or from any
// OpenAI-compatible endpoint when a base URL is configured (gateways, vLLM,
// fireworks, deepseek).
type OpenAIProvider struct {
	cfg    Config
	client *openai.Client
}

const defaultOpenAIModel = "gpt-4o-mini"

// NewOpenAIProvider creates the provider from a resolved config.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPTimeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &OpenAIProvider{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
	}, nil
}

func (p *OpenAIProvider) ID() string           { return "openai" }
func (p *OpenAIProvider) Model() string        { return p.cfg.Model }
func (p *OpenAIProvider) Hints() prompt.Hints  { return p.cfg.Hints }
func (p *OpenAIProvider) SupportsInfill() bool { return true }

func (p *OpenAIProvider) GenerateCompletions(ctx context.Context, req Request) (<-chan Batch, error) {
	system, user := chatPrompt(p, req)
	gen := func(ctx context.Context) (string, error) {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: p.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			MaxTokens:   256,
			Temperature: 0.2,
			Stop:        stopSequences(req),
		})
		if err != nil {
			return "", fmt.Errorf("openai API call failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyCompletion
		}
		return resp.Choices[0].Message.Content, nil
	}
	return fanOut(ctx, p, req, p.cfg.FirstCompletionTimeout, gen), nil
}
