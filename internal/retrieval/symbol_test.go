package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inlay/internal/document"
)

func TestSymbolSupportsLanguage(t *testing.T) {
	r := NewSymbolRetriever(document.NewHistory())
	defer r.Close()

	for _, lang := range []string{"go", "python", "javascript", "typescript", "typescriptreact", "rust"} {
		assert.True(t, r.SupportsLanguage(lang), lang)
	}
	for _, lang := range []string{"cobol", "css", "plaintext", ""} {
		assert.False(t, r.SupportsLanguage(lang), lang)
	}
}

func TestSymbolResolvesDefinitionFromHistory(t *testing.T) {
	h := document.NewHistory()
	h.RecordEdit(document.Edit{
		URI:        "file:///util.go",
		LanguageID: "go",
		Content: "package util\n\n" +
			"func normalizePath(p string) string {\n\treturn filepath.Clean(p)\n}\n\n" +
			"func unrelated() {}\n",
	})

	text := "package main\n\nfunc main() {\n\tout := normalizePath("
	snap := document.NewSnapshot("file:///main.go", "go", text,
		document.Position{Line: 3, Character: 22}, 1)

	r := NewSymbolRetriever(h)
	defer r.Close()
	snippets, err := r.Retrieve(context.Background(), snap)
	require.NoError(t, err)
	require.NotEmpty(t, snippets)
	assert.Equal(t, "file:///util.go", snippets[0].SourceURI)
	assert.Contains(t, snippets[0].Content, "func normalizePath")
	for _, s := range snippets {
		assert.NotContains(t, s.Content, "unrelated")
	}
}

func TestSymbolUnsupportedLanguageReturnsNothing(t *testing.T) {
	r := NewSymbolRetriever(document.NewHistory())
	defer r.Close()

	snap := document.NewSnapshot("file:///x.txt", "plaintext", "hello world",
		document.Position{Line: 0, Character: 11}, 1)
	snippets, err := r.Retrieve(context.Background(), snap)
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestSymbolNoIdentifiersNearCursor(t *testing.T) {
	h := document.NewHistory()
	h.RecordEdit(document.Edit{URI: "file:///a.go", LanguageID: "go", Content: "package a"})

	r := NewSymbolRetriever(h)
	defer r.Close()
	snap := document.NewSnapshot("file:///b.go", "go", "// nothing here\n",
		document.Position{Line: 0, Character: 0}, 1)
	snippets, err := r.Retrieve(context.Background(), snap)
	require.NoError(t, err)
	assert.Empty(t, snippets)
}
