package retrieval

import (
	"context"
	"strings"
	"time"

	"inlay/internal/document"
	"inlay/internal/logging"
)

// RecentEditsRetriever surfaces the tail of documents edited within a time
// window. The intuition: code the user just touched elsewhere is the most
// likely referent of what they are typing now.
type RecentEditsRetriever struct {
	history *document.History
	window  time.Duration
	// maxSnippetLines caps how much of each edited document is taken.
	maxSnippetLines int
}

// NewRecentEditsRetriever creates a retriever over the shared edit history.
func NewRecentEditsRetriever(history *document.History, window time.Duration) *RecentEditsRetriever {
	return &RecentEditsRetriever{
		history:         history,
		window:          window,
		maxSnippetLines: 40,
	}
}

func (r *RecentEditsRetriever) Kind() string { return "recent-edits" }

// SupportsLanguage is unconditionally true; recency needs no language tooling.
func (r *RecentEditsRetriever) SupportsLanguage(string) bool { return true }

func (r *RecentEditsRetriever) Close() {}

func (r *RecentEditsRetriever) Retrieve(ctx context.Context, snap *document.Snapshot) ([]Snippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-r.window)
	edits := r.history.EditsSince(cutoff, snap.URI)

	var snippets []Snippet
	for i, e := range edits {
		content := tailLines(e.Content, r.maxSnippetLines)
		if strings.TrimSpace(content) == "" {
			continue
		}
		snippets = append(snippets, Snippet{
			SourceURI: e.URI,
			Content:   content,
			Kind:      r.Kind(),
			// Most recently edited document first; History already orders
			// by recency, so score decays with position.
			Score: 1.0 / float64(i+1),
		})
	}
	logging.RetrievalDebug("recent-edits: %d snippets within %s for %s", len(snippets), r.window, snap.URI)
	return snippets, nil
}

// tailLines returns the last n lines of text.
func tailLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
