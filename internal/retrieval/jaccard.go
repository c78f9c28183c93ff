package retrieval

import (
	"context"
	"strings"
	"unicode"

	"inlay/internal/document"
	"inlay/internal/logging"
)

// JaccardRetriever ranks sliding windows of recently open documents by token
// overlap with the text just before the cursor. Cheap, language-agnostic,
// and surprisingly effective for boilerplate-heavy code.
type JaccardRetriever struct {
	history *document.History

	windowLines  int // lines per candidate window
	queryLines   int // prefix lines used as the query
	maxDocuments int
	maxSnippets  int
	minScore     float64
}

// NewJaccardRetriever creates a retriever over the shared edit history.
func NewJaccardRetriever(history *document.History) *JaccardRetriever {
	return &JaccardRetriever{
		history:      history,
		windowLines:  50,
		queryLines:   50,
		maxDocuments: 10,
		maxSnippets:  10,
		minScore:     0.05,
	}
}

func (r *JaccardRetriever) Kind() string { return "jaccard-similarity" }

func (r *JaccardRetriever) SupportsLanguage(string) bool { return true }

func (r *JaccardRetriever) Close() {}

func (r *JaccardRetriever) Retrieve(ctx context.Context, snap *document.Snapshot) ([]Snippet, error) {
	query := wordBag(lastLines(snap.Prefix(), r.queryLines))
	if len(query) == 0 {
		return nil, nil
	}

	docs := r.history.RecentDocuments(r.maxDocuments, snap.URI)
	var snippets []Snippet
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		best, score := r.bestWindow(d.Content, query)
		if score < r.minScore || strings.TrimSpace(best) == "" {
			continue
		}
		snippets = append(snippets, Snippet{
			SourceURI: d.URI,
			Content:   best,
			Kind:      r.Kind(),
			Score:     score,
		})
	}
	sortByScore(snippets)
	if len(snippets) > r.maxSnippets {
		snippets = snippets[:r.maxSnippets]
	}
	logging.RetrievalDebug("jaccard: %d snippets for %s", len(snippets), snap.URI)
	return snippets, nil
}

// bestWindow slides a windowLines-sized window over the document and returns
// the window with the highest Jaccard similarity to the query bag.
func (r *JaccardRetriever) bestWindow(content string, query map[string]struct{}) (string, float64) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 {
		return "", 0
	}
	step := r.windowLines / 2
	if step < 1 {
		step = 1
	}
	bestScore := 0.0
	bestStart := 0
	for start := 0; start < len(lines); start += step {
		end := start + r.windowLines
		if end > len(lines) {
			end = len(lines)
		}
		bag := wordBag(strings.Join(lines[start:end], "\n"))
		if s := jaccard(query, bag); s > bestScore {
			bestScore = s
			bestStart = start
		}
		if end == len(lines) {
			break
		}
	}
	end := bestStart + r.windowLines
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[bestStart:end], "\n"), bestScore
}

// jaccard computes |a∩b| / |a∪b| over two word sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// wordBag lowercases and splits text into identifier-ish words, dropping
// single characters which add noise without signal.
func wordBag(text string) map[string]struct{} {
	bag := make(map[string]struct{})
	var word []rune
	flush := func() {
		if len(word) > 1 {
			bag[strings.ToLower(string(word))] = struct{}{}
		}
		word = word[:0]
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			word = append(word, r)
		} else {
			flush()
		}
	}
	flush()
	return bag
}

// lastLines returns the trailing n lines of text.
func lastLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
