package retrieval

import (
	"fmt"
	"time"

	"inlay/internal/document"
	"inlay/internal/logging"
)

// Strategy is the per-request retrieval plan: the configured name plus the
// retrievers to run, in composition order.
type Strategy struct {
	Name       string
	Retrievers []Retriever
}

// Factory constructs at most two retrievers ("local" and "graph") at
// configuration time and composes them per document at request time.
// Replaced wholesale on configuration change; Close releases the retrievers.
type Factory struct {
	name  string
	local Retriever
	graph Retriever
}

const (
	cacheSize = 512
	cacheTTL  = 30 * time.Second
)

// NewFactory builds the factory for a configured strategy name. Unknown
// names are a configuration error so typos surface at startup, not silently
// at request time.
func NewFactory(name string, history *document.History) (*Factory, error) {
	f := &Factory{name: name}

	cached := func(r Retriever) Retriever {
		c, err := NewCachedRetriever(r, cacheSize, cacheTTL)
		if err != nil {
			// Cache is an optimization; run uncached rather than fail.
			return r
		}
		return c
	}

	switch name {
	case "none":
		// No retrievers; the prompt carries prefix/suffix only.
	case "jaccard-similarity":
		f.local = cached(NewJaccardRetriever(history))
	case "recent-copy":
		f.local = cached(NewRecentCopyRetriever(history))
	case "recent-edits", "recent-edits-5m":
		f.local = cached(NewRecentEditsRetriever(history, 5*time.Minute))
	case "recent-edits-1m":
		f.local = cached(NewRecentEditsRetriever(history, time.Minute))
	case "lsp-light", "bfg", "bfg-mixed", "tsc-mixed":
		f.local = cached(NewJaccardRetriever(history))
		f.graph = cached(NewSymbolRetriever(history))
	case "recent-edits-mixed":
		f.local = cached(NewRecentEditsRetriever(history, 5*time.Minute))
		f.graph = cached(NewSymbolRetriever(history))
	default:
		return nil, fmt.Errorf("unknown context strategy %q", name)
	}
	return f, nil
}

// Name returns the configured strategy name.
func (f *Factory) Name() string { return f.name }

// GetStrategy composes the retriever list for a document.
//
// Composition rules:
//   - none: no retrievers
//   - jaccard-similarity / recent-copy / recent-edits*: local only
//   - lsp-light: graph first plus local when the language is supported,
//     local only otherwise
//   - bfg: graph XOR local (graph when supported, local as fallback)
//   - bfg-mixed / tsc-mixed: graph then local when supported, local otherwise
//   - recent-edits-mixed: local then graph when supported, local otherwise
func (f *Factory) GetStrategy(snap *document.Snapshot) Strategy {
	s := Strategy{Name: f.name}
	graphOK := f.graph != nil && f.graph.SupportsLanguage(snap.LanguageID)

	switch f.name {
	case "none":
	case "lsp-light":
		if graphOK {
			s.Retrievers = []Retriever{f.graph, f.local}
		} else {
			s.Retrievers = []Retriever{f.local}
		}
	case "bfg":
		if graphOK {
			s.Retrievers = []Retriever{f.graph}
		} else {
			s.Retrievers = []Retriever{f.local}
		}
	case "bfg-mixed", "tsc-mixed":
		if graphOK {
			s.Retrievers = []Retriever{f.graph, f.local}
		} else {
			s.Retrievers = []Retriever{f.local}
		}
	case "recent-edits-mixed":
		if graphOK {
			s.Retrievers = []Retriever{f.local, f.graph}
		} else {
			s.Retrievers = []Retriever{f.local}
		}
	default:
		if f.local != nil {
			s.Retrievers = []Retriever{f.local}
		}
	}

	logging.RetrievalDebug("strategy %s -> %d retrievers for %s (%s)",
		f.name, len(s.Retrievers), snap.URI, snap.LanguageID)
	return s
}

// Close releases all constructed retrievers. Called when the factory is
// replaced on configuration change or the session ends.
func (f *Factory) Close() {
	if f.local != nil {
		f.local.Close()
	}
	if f.graph != nil {
		f.graph.Close()
	}
}
