// Package provider normalizes heterogeneous LLM backends behind one
// completion contract. Each backend builds its own prompt encoding, decides
// infill versus continuation, and streams candidate batches; the shared
// fan-out machinery handles concurrency, timeouts, and post-processing.
package provider

import (
	"context"
	"errors"
	"time"

	"inlay/internal/document"
	"inlay/internal/prompt"
)

// Candidate is one completion produced by a provider. Consumed by the
// coordinator; never persisted beyond the current suggestion cycle.
type Candidate struct {
	InsertText string            `json:"insert_text"`
	Range      document.Position `json:"range"`
	ProviderID string            `json:"provider_id"`
	ModelID    string            `json:"model_id"`
}

// Batch is a group of candidates arriving together.
type Batch []Candidate

// Request carries everything a backend needs for one trigger.
type Request struct {
	Prompt     prompt.Context
	Multiline  bool
	N          int
	LanguageID string
}

// Provider is the capability interface each backend family implements.
type Provider interface {
	// ID is the stable provider identifier ("anthropic", "ollama", ...).
	ID() string
	// Model is the active model identifier.
	Model() string
	// Hints bound how much prompt material the backend accepts.
	Hints() prompt.Hints
	// SupportsInfill reports whether the backend can fill between a prefix
	// and a non-empty suffix rather than only continue the prefix.
	SupportsInfill() bool
	// GenerateCompletions streams candidate batches. The channel closes when
	// all requested completions have arrived or failed; ctx cancellation
	// must abort in-flight network calls promptly.
	GenerateCompletions(ctx context.Context, req Request) (<-chan Batch, error)
}

// Config describes one provider instance. Immutable once constructed;
// rebuilt from scratch on configuration change.
type Config struct {
	ID        string
	Model     string
	APIKey    string
	BaseURL   string
	Hints     prompt.Hints
	Multiline bool
	// FirstCompletionTimeout bounds time to the first candidate. Exceeding
	// it is a timeout failure, never a hang.
	FirstCompletionTimeout time.Duration
	// HTTPTimeout bounds the underlying transport.
	HTTPTimeout time.Duration
}

// ErrTimeout marks a first-completion deadline miss.
var ErrTimeout = errors.New("completion timed out")

// ErrEmptyCompletion marks a backend response with no usable text.
var ErrEmptyCompletion = errors.New("backend returned no completion")

// useInfill decides the prompting mode: infill when the suffix carries
// content beyond trailing whitespace and the backend supports it.
func useInfill(p Provider, req Request) bool {
	if !p.SupportsInfill() {
		return false
	}
	suffix := req.Prompt.Suffix
	for _, r := range suffix {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}
