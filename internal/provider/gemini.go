package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"inlay/internal/prompt"
)

// GeminiProvider serves completions from the Gemini API via the genai SDK.
type GeminiProvider struct {
	cfg    Config
	client *genai.Client
}

const defaultGeminiModel = "gemini-2.5-flash"

// NewGeminiProvider creates the provider from a resolved config.
func NewGeminiProvider(ctx context.Context, cfg Config) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiProvider{cfg: cfg, client: client}, nil
}

func (p *GeminiProvider) ID() string           { return "gemini" }
func (p *GeminiProvider) Model() string        { return p.cfg.Model }
func (p *GeminiProvider) Hints() prompt.Hints  { return p.cfg.Hints }
func (p *GeminiProvider) SupportsInfill() bool { return true }

func (p *GeminiProvider) GenerateCompletions(ctx context.Context, req Request) (<-chan Batch, error) {
	system, user := chatPrompt(p, req)
	gen := func(ctx context.Context) (string, error) {
		result, err := p.client.Models.GenerateContent(ctx,
			p.cfg.Model,
			genai.Text(user),
			&genai.GenerateContentConfig{
				SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
				Temperature:       genai.Ptr[float32](0.2),
				MaxOutputTokens:   256,
				StopSequences:     stopSequences(req),
			})
		if err != nil {
			return "", fmt.Errorf("gemini API call failed: %w", err)
		}
		text := result.Text()
		if text == "" {
			return "", ErrEmptyCompletion
		}
		return text, nil
	}
	return fanOut(ctx, p, req, p.cfg.FirstCompletionTimeout, gen), nil
}
