package retrieval

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inlay/internal/document"
)

func TestRecentEditsWindow(t *testing.T) {
	h := document.NewHistory()
	h.RecordEdit(document.Edit{URI: "file:///old.go", Content: "ancient", At: time.Now().Add(-10 * time.Minute)})
	h.RecordEdit(document.Edit{URI: "file:///new.go", Content: "fresh code", At: time.Now().Add(-10 * time.Second)})

	snap := document.NewSnapshot("file:///cur.go", "go", "", document.Position{}, 1)
	snippets, err := NewRecentEditsRetriever(h, time.Minute).Retrieve(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "file:///new.go", snippets[0].SourceURI)
	assert.Equal(t, "fresh code", snippets[0].Content)
}

func TestRecentEditsScoresDecayByRecency(t *testing.T) {
	h := document.NewHistory()
	h.RecordEdit(document.Edit{URI: "file:///first.go", Content: "one"})
	h.RecordEdit(document.Edit{URI: "file:///second.go", Content: "two"})

	snap := document.NewSnapshot("file:///cur.go", "go", "", document.Position{}, 1)
	snippets, err := NewRecentEditsRetriever(h, time.Minute).Retrieve(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, "file:///second.go", snippets[0].SourceURI)
	assert.Greater(t, snippets[0].Score, snippets[1].Score)
}

func TestRecentEditsTailCap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	h := document.NewHistory()
	h.RecordEdit(document.Edit{URI: "file:///big.go", Content: sb.String()})

	snap := document.NewSnapshot("file:///cur.go", "go", "", document.Position{}, 1)
	snippets, err := NewRecentEditsRetriever(h, time.Minute).Retrieve(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.LessOrEqual(t, strings.Count(snippets[0].Content, "\n")+1, 40)
	assert.Contains(t, snippets[0].Content, "line 99")
	assert.NotContains(t, snippets[0].Content, "line 10\n")
}

func TestRecentCopySkipsContentInPrefix(t *testing.T) {
	h := document.NewHistory()
	h.RecordCopy(document.Copy{URI: "file:///src.go", Content: "already pasted"})
	h.RecordCopy(document.Copy{URI: "file:///src.go", Content: "still useful"})

	snap := document.NewSnapshot("file:///cur.go", "go", "already pasted\n",
		document.Position{Line: 1, Character: 0}, 1)
	snippets, err := NewRecentCopyRetriever(h).Retrieve(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "still useful", snippets[0].Content)
}
