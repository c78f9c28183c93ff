package config

import "time"

// ProviderTimeouts centralizes timeout configuration for completion requests.
//
// The shortest timeout in the chain wins: a generous HTTP client wrapped in a
// tight request context still fails when the context expires. These values
// are the canonical per-stage budgets every caller should use.
type ProviderTimeouts struct {
	// FirstCompletionMs bounds time-to-first-candidate per provider id.
	// Hosted chat APIs need more headroom than a local FIM server.
	FirstCompletionMs map[string]int `json:"first_completion_ms,omitempty"`

	// RetrievalMs bounds each context retriever call.
	RetrievalMs int `json:"retrieval_ms,omitempty"`

	// HTTPClientMs bounds the underlying HTTP transport, including body read.
	HTTPClientMs int `json:"http_client_ms,omitempty"`
}

// Default first-completion budgets. The hosted providers routinely take over
// a second for a cold completion; Ollama on localhost should not.
var defaultFirstCompletion = map[string]time.Duration{
	"anthropic": 7 * time.Second,
	"openai":    7 * time.Second,
	"gemini":    6 * time.Second,
	"ollama":    4 * time.Second,
}

const (
	defaultRetrievalTimeout  = 150 * time.Millisecond
	defaultHTTPClientTimeout = 30 * time.Second
)

// FirstCompletion returns the first-candidate budget for a provider id.
func (t *ProviderTimeouts) FirstCompletion(providerID string) time.Duration {
	if t != nil && t.FirstCompletionMs != nil {
		if ms, ok := t.FirstCompletionMs[providerID]; ok && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	if d, ok := defaultFirstCompletion[providerID]; ok {
		return d
	}
	return 7 * time.Second
}

// Retrieval returns the per-retriever budget.
func (t *ProviderTimeouts) Retrieval() time.Duration {
	if t != nil && t.RetrievalMs > 0 {
		return time.Duration(t.RetrievalMs) * time.Millisecond
	}
	return defaultRetrievalTimeout
}

// HTTPClient returns the transport-level budget.
func (t *ProviderTimeouts) HTTPClient() time.Duration {
	if t != nil && t.HTTPClientMs > 0 {
		return time.Duration(t.HTTPClientMs) * time.Millisecond
	}
	return defaultHTTPClientTimeout
}
