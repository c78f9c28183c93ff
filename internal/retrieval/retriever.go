// Package retrieval gathers candidate code snippets for a completion request.
// Each retriever mines one source (recent edits, lexical similarity against
// open files, clipboard, symbol graph) and returns scored snippets; the
// strategy factory composes retrievers per the configured strategy name.
package retrieval

import (
	"context"
	"sort"

	"inlay/internal/document"
)

// Snippet is one scored piece of context produced by a retriever. Read-only;
// assembled into a prompt context and then discarded.
type Snippet struct {
	SourceURI string
	Content   string
	Kind      string
	// Score is retriever-relative relevance, higher is better. Scores are
	// comparable within one retriever, not across retrievers; ordering
	// across retrievers comes from strategy composition.
	Score float64
}

// Retriever produces context snippets for a document snapshot.
//
// Failure policy: a retriever that errors or times out contributes nothing.
// Callers treat an empty slice as a valid result, never as a failed request.
type Retriever interface {
	// Kind names the retriever for logging and snippet attribution.
	Kind() string
	// SupportsLanguage reports whether the retriever can serve a language.
	SupportsLanguage(languageID string) bool
	// Retrieve returns snippets ordered by descending relevance. It must
	// honor ctx cancellation promptly.
	Retrieve(ctx context.Context, snap *document.Snapshot) ([]Snippet, error)
	// Close releases any resources held by the retriever.
	Close()
}

// sortByScore orders snippets by descending score, stable for ties.
func sortByScore(snippets []Snippet) {
	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].Score > snippets[j].Score
	})
}
