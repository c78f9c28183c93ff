// Package compare runs one completion per configured provider/strategy pair
// for the same document position and aggregates the results side by side.
// It lives outside the coordinator's cancellation chain: comparison runs are
// deliberate and should not be superseded by keystrokes.
package compare

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"inlay/internal/config"
	"inlay/internal/document"
	"inlay/internal/logging"
	"inlay/internal/prompt"
	"inlay/internal/provider"
	"inlay/internal/retrieval"
)

// Branch is one independent provider/strategy pair under comparison.
type Branch struct {
	Provider provider.Provider
	Factory  *retrieval.Factory
	Strategy string
}

// Outcome is one branch's result.
type Outcome struct {
	Provider string        `yaml:"provider" json:"provider"`
	Model    string        `yaml:"model" json:"model"`
	Strategy string        `yaml:"strategy" json:"strategy"`
	Text     string        `yaml:"text,omitempty" json:"text,omitempty"`
	Error    string        `yaml:"error,omitempty" json:"error,omitempty"`
	Elapsed  time.Duration `yaml:"elapsed" json:"elapsed"`
}

// Dispatcher fans a single position out to every configured branch.
type Dispatcher struct {
	branches []Branch
}

// NewDispatcher builds the branches from the compare list in user config.
// Each branch gets its own provider and retrieval factory so branches cannot
// interfere with each other or with the primary completion path.
func NewDispatcher(ctx context.Context, uc *config.UserConfig, history *document.History) (*Dispatcher, error) {
	if len(uc.Compare) == 0 {
		return nil, fmt.Errorf("no compare entries configured; add a \"compare\" list to %s", config.DefaultConfigPath())
	}

	keyFor := func(id string) string {
		switch id {
		case "anthropic":
			return uc.AnthropicAPIKey
		case "openai":
			return uc.OpenAIAPIKey
		case "gemini":
			return uc.GeminiAPIKey
		}
		return ""
	}

	var branches []Branch
	for _, entry := range uc.Compare {
		p, err := provider.New(ctx, provider.Config{
			ID:                     entry.Provider,
			Model:                  entry.Model,
			APIKey:                 keyFor(entry.Provider),
			BaseURL:                uc.BaseURL,
			Multiline:              true,
			FirstCompletionTimeout: uc.Timeouts.FirstCompletion(entry.Provider),
			HTTPTimeout:            uc.Timeouts.HTTPClient(),
		})
		if err != nil {
			return nil, fmt.Errorf("compare branch %s: %w", entry.Provider, err)
		}
		strategy := entry.Strategy
		if strategy == "" {
			strategy = uc.ContextStrategy
		}
		factory, err := retrieval.NewFactory(strategy, history)
		if err != nil {
			return nil, fmt.Errorf("compare branch %s: %w", entry.Provider, err)
		}
		branches = append(branches, Branch{Provider: p, Factory: factory, Strategy: strategy})
	}
	return &Dispatcher{branches: branches}, nil
}

// Close releases every branch's retrieval factory.
func (d *Dispatcher) Close() {
	for _, b := range d.branches {
		b.Factory.Close()
	}
}

// Run executes one completion pull per branch for the same snapshot and
// waits for every branch. A failing branch reports its error in its own
// outcome and does not affect the others.
func (d *Dispatcher) Run(ctx context.Context, snap *document.Snapshot) ([]Outcome, error) {
	outcomes := make([]Outcome, len(d.branches))
	g, gctx := errgroup.WithContext(ctx)
	log := logging.Get(logging.CategoryCompare)

	for i, b := range d.branches {
		g.Go(func() error {
			start := time.Now()
			out := Outcome{
				Provider: b.Provider.ID(),
				Model:    b.Provider.Model(),
				Strategy: b.Strategy,
			}

			strategy := b.Factory.GetStrategy(snap)
			var snippets []retrieval.Snippet
			for _, r := range strategy.Retrievers {
				got, err := r.Retrieve(gctx, snap)
				if err != nil {
					continue
				}
				snippets = append(snippets, got...)
			}

			pc := prompt.Build(snap, snippets, b.Provider.Hints())
			text, err := pullOne(gctx, b.Provider, provider.Request{
				Prompt:     pc,
				Multiline:  true,
				N:          1,
				LanguageID: snap.LanguageID,
			})
			out.Elapsed = time.Since(start)
			if err != nil {
				out.Error = err.Error()
			} else {
				out.Text = text
			}
			outcomes[i] = out
			log.Info("branch %s/%s/%s finished in %s (err=%v)",
				out.Provider, out.Model, out.Strategy, out.Elapsed, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// pullOne takes the first candidate from a provider's stream.
func pullOne(ctx context.Context, p provider.Provider, req provider.Request) (string, error) {
	ch, err := p.GenerateCompletions(ctx, req)
	if err != nil {
		return "", err
	}
	for batch := range ch {
		if len(batch) > 0 {
			return batch[0].InsertText, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", provider.ErrEmptyCompletion
}

// RenderText formats outcomes as a human-readable report.
func RenderText(outcomes []Outcome) string {
	var b strings.Builder
	for _, o := range outcomes {
		fmt.Fprintf(&b, "=== %s / %s / %s (%s)\n", o.Provider, o.Model, o.Strategy, o.Elapsed.Round(time.Millisecond))
		if o.Error != "" {
			fmt.Fprintf(&b, "error: %s\n", o.Error)
		} else {
			b.WriteString(o.Text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderYAML formats outcomes as YAML for tooling consumption.
func RenderYAML(outcomes []Outcome) (string, error) {
	data, err := yaml.Marshal(outcomes)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return string(data), nil
}
