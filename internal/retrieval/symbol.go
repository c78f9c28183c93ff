package retrieval

import (
	"context"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"inlay/internal/document"
	"inlay/internal/logging"
)

// SymbolRetriever is the graph-aware retriever: it parses the current file,
// collects identifiers referenced near the cursor, and resolves them to
// definition snippets in recently edited documents. Only languages with a
// grammar are supported; the factory falls back to local retrievers
// everywhere else.
type SymbolRetriever struct {
	history *document.History

	mu     sync.Mutex // tree-sitter parsers are not goroutine-safe
	parser *sitter.Parser

	maxIdentifiers int
	maxSnippets    int
	contextLines   int // identifiers are taken from this many lines above the cursor
}

// Declaration node types across the supported grammars.
var declarationTypes = map[string]bool{
	// go
	"function_declaration": true,
	"method_declaration":   true,
	"type_declaration":     true,
	// python
	"class_definition":    true,
	"function_definition": true,
	// javascript / typescript
	"class_declaration":     true,
	"interface_declaration": true,
	"method_definition":     true,
	// rust
	"function_item": true,
	"struct_item":   true,
	"enum_item":     true,
	"impl_item":     true,
}

var symbolLanguages = map[string]func() *sitter.Language{
	"go":              golang.GetLanguage,
	"python":          python.GetLanguage,
	"javascript":      javascript.GetLanguage,
	"javascriptreact": javascript.GetLanguage,
	"typescript":      typescript.GetLanguage,
	"typescriptreact": typescript.GetLanguage,
	"rust":            rust.GetLanguage,
}

// NewSymbolRetriever creates the graph retriever over the shared history.
func NewSymbolRetriever(history *document.History) *SymbolRetriever {
	return &SymbolRetriever{
		history:        history,
		parser:         sitter.NewParser(),
		maxIdentifiers: 20,
		maxSnippets:    8,
		contextLines:   30,
	}
}

func (r *SymbolRetriever) Kind() string { return "symbol" }

// SupportsLanguage reports whether a tree-sitter grammar is wired for the
// language. The strategy factory consults this before selecting the graph
// path.
func (r *SymbolRetriever) SupportsLanguage(languageID string) bool {
	_, ok := symbolLanguages[languageID]
	return ok
}

func (r *SymbolRetriever) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parser.Close()
}

func (r *SymbolRetriever) Retrieve(ctx context.Context, snap *document.Snapshot) ([]Snippet, error) {
	langFn, ok := symbolLanguages[snap.LanguageID]
	if !ok {
		return nil, nil
	}

	idents, err := r.identifiersNearCursor(ctx, langFn(), snap)
	if err != nil {
		return nil, err
	}
	if len(idents) == 0 {
		return nil, nil
	}

	docs := r.history.RecentDocuments(10, snap.URI)
	var snippets []Snippet
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		defs, err := r.definitionsIn(ctx, langFn(), d.URI, d.Content, idents)
		if err != nil {
			continue // one unparseable document must not sink the rest
		}
		snippets = append(snippets, defs...)
	}
	sortByScore(snippets)
	if len(snippets) > r.maxSnippets {
		snippets = snippets[:r.maxSnippets]
	}
	logging.RetrievalDebug("symbol: %d identifiers -> %d snippets for %s", len(idents), len(snippets), snap.URI)
	return snippets, nil
}

// identifiersNearCursor parses the tail of the prefix and collects the
// distinct identifiers referenced there, most recent first.
func (r *SymbolRetriever) identifiersNearCursor(ctx context.Context, lang *sitter.Language, snap *document.Snapshot) (map[string]float64, error) {
	src := []byte(lastLines(snap.Prefix(), r.contextLines))

	r.mu.Lock()
	r.parser.SetLanguage(lang)
	tree, err := r.parser.ParseCtx(ctx, nil, src)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	idents := make(map[string]float64)
	var walk func(n *sitter.Node)
	count := 0
	var order []string
	walk = func(n *sitter.Node) {
		if count >= r.maxIdentifiers*4 {
			return
		}
		t := n.Type()
		if t == "identifier" || t == "type_identifier" || t == "field_identifier" || t == "property_identifier" {
			name := n.Content(src)
			if len(name) > 2 {
				if _, seen := idents[name]; !seen {
					order = append(order, name)
				}
				idents[name] = 0
				count++
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.RootNode())

	// Later mentions sit closer to the cursor and score higher.
	for i, name := range order {
		idents[name] = float64(i+1) / float64(len(order))
	}
	if len(order) > r.maxIdentifiers {
		for _, name := range order[:len(order)-r.maxIdentifiers] {
			delete(idents, name)
		}
	}
	return idents, nil
}

// definitionsIn extracts declaration nodes whose name matches one of the
// wanted identifiers.
func (r *SymbolRetriever) definitionsIn(ctx context.Context, lang *sitter.Language, uri, content string, wanted map[string]float64) ([]Snippet, error) {
	src := []byte(content)

	r.mu.Lock()
	r.parser.SetLanguage(lang)
	tree, err := r.parser.ParseCtx(ctx, nil, src)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var out []Snippet
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if declarationTypes[n.Type()] {
			if name := declarationName(n, src); name != "" {
				if score, ok := wanted[name]; ok {
					text := n.Content(src)
					if strings.Count(text, "\n") > 60 {
						// Huge bodies blow the budget; keep the signature
						// lines which carry the shape.
						text = strings.Join(strings.Split(text, "\n")[:60], "\n")
					}
					out = append(out, Snippet{
						SourceURI: uri,
						Content:   text,
						Kind:      r.Kind(),
						Score:     score,
					})
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.RootNode())
	return out, nil
}

func declarationName(n *sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}
	return ""
}
