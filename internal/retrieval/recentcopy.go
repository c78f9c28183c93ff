package retrieval

import (
	"context"
	"strings"

	"inlay/internal/document"
)

// RecentCopyRetriever surfaces clipboard entries the user copied recently.
// Copied code is a strong signal: people copy exactly the thing they are
// about to adapt.
type RecentCopyRetriever struct {
	history *document.History
}

// NewRecentCopyRetriever creates a retriever over the shared copy buffer.
func NewRecentCopyRetriever(history *document.History) *RecentCopyRetriever {
	return &RecentCopyRetriever{history: history}
}

func (r *RecentCopyRetriever) Kind() string { return "recent-copy" }

func (r *RecentCopyRetriever) SupportsLanguage(string) bool { return true }

func (r *RecentCopyRetriever) Close() {}

func (r *RecentCopyRetriever) Retrieve(ctx context.Context, snap *document.Snapshot) ([]Snippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	copies := r.history.Copies()
	var snippets []Snippet
	for i, c := range copies {
		content := strings.TrimSpace(c.Content)
		if content == "" {
			continue
		}
		// Skip copies that are already sitting in the prefix; the model
		// sees them anyway.
		if strings.Contains(snap.Prefix(), content) {
			continue
		}
		snippets = append(snippets, Snippet{
			SourceURI: c.URI,
			Content:   content,
			Kind:      r.Kind(),
			Score:     1.0 / float64(i+1), // newest copy first
		})
	}
	return snippets, nil
}
