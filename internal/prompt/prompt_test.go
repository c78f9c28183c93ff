package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inlay/internal/document"
	"inlay/internal/retrieval"
)

func TestBuildTrimsPrefixAndSuffix(t *testing.T) {
	text := strings.Repeat("a", 100) + "|" + strings.Repeat("b", 100)
	snap := document.NewSnapshot("file:///a.go", "go", text,
		document.Position{Line: 0, Character: 101}, 1)

	pc := Build(snap, nil, Hints{TotalChars: 1000, PrefixChars: 20, SuffixChars: 10})
	assert.Len(t, pc.Prefix, 20)
	assert.True(t, strings.HasSuffix(pc.Prefix, "|"), "prefix must keep the cursor end")
	assert.Len(t, pc.Suffix, 10)
	assert.True(t, strings.HasPrefix(text[101:], pc.Suffix), "suffix must keep the cursor start")
}

func TestBuildSnippetBudget(t *testing.T) {
	snap := document.NewSnapshot("file:///main.go", "go", "short prefix",
		document.Position{Line: 0, Character: 12}, 1)
	snippets := []retrieval.Snippet{
		{SourceURI: "file:///a.go", Content: strings.Repeat("x", 50), Score: 0.9},
		{SourceURI: "file:///b.go", Content: strings.Repeat("y", 50), Score: 0.5},
		{SourceURI: "file:///c.go", Content: strings.Repeat("z", 5000), Score: 0.4},
		{SourceURI: "file:///d.go", Content: "tiny", Score: 0.3},
	}

	pc := Build(snap, snippets, Hints{TotalChars: 300, PrefixChars: 100, SuffixChars: 100})
	// The oversized third snippet stops inclusion; the tiny fourth one is not
	// reordered in front of it.
	require.Len(t, pc.Snippets, 2)
	assert.Equal(t, "file:///a.go", pc.Snippets[0].SourceURI)
	assert.Equal(t, "file:///b.go", pc.Snippets[1].SourceURI)

	used := len(pc.Prefix) + len(pc.Suffix) + len(pc.FileHeader)
	for _, s := range pc.Snippets {
		used += len(s.Content) + len(s.SourceURI)
	}
	assert.LessOrEqual(t, used, 300)
}

func TestBuildNoBudgetKeepsAllSnippets(t *testing.T) {
	snap := document.NewSnapshot("file:///a.go", "go", "x", document.Position{Line: 0, Character: 1}, 1)
	snippets := []retrieval.Snippet{{Content: "one"}, {Content: "two"}}
	pc := Build(snap, snippets, Hints{})
	assert.Len(t, pc.Snippets, 2)
}

func TestSnippetBlockRendering(t *testing.T) {
	pc := Context{Snippets: []retrieval.Snippet{
		{SourceURI: "file:///util.py", Content: "def helper():\n    pass", Kind: "recent-edits"},
	}}
	block := pc.SnippetBlock("#")
	assert.Contains(t, block, "# Context from util.py (recent-edits):")
	assert.Contains(t, block, "# def helper():")
	assert.Contains(t, block, "#     pass")

	assert.Empty(t, Context{}.SnippetBlock("//"))
}

func TestCommentPrefix(t *testing.T) {
	assert.Equal(t, "#", CommentPrefix("python"))
	assert.Equal(t, "--", CommentPrefix("sql"))
	assert.Equal(t, "//", CommentPrefix("go"))
	assert.Equal(t, "//", CommentPrefix("unknown"))
}
