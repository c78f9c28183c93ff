// Package prompt assembles the budget-bounded context a provider sees:
// trimmed prefix/suffix around the cursor plus as many retrieved snippets as
// fit the provider's character budget.
package prompt

import (
	"fmt"
	"path"
	"strings"

	"inlay/internal/document"
	"inlay/internal/retrieval"
)

// Hints bound how much of a document and its snippets a provider accepts.
// Fixed per provider; characters, not tokens, because providers tokenize
// differently and chars are the conservative common denominator.
type Hints struct {
	TotalChars  int
	PrefixChars int
	SuffixChars int
}

// Context is the assembled prompt material for one request. Built fresh per
// request and never shared.
type Context struct {
	Prefix     string
	Suffix     string
	Snippets   []retrieval.Snippet
	FileHeader string
	LanguageID string
}

// Build trims the snapshot to the prefix/suffix budget, then adds snippets
// in the given priority order until the next one would overflow the total
// budget. The prefix/suffix region is never sacrificed for snippets.
func Build(snap *document.Snapshot, snippets []retrieval.Snippet, hints Hints) Context {
	prefix := snap.Prefix()
	suffix := snap.Suffix()

	if hints.PrefixChars > 0 && len(prefix) > hints.PrefixChars {
		prefix = prefix[len(prefix)-hints.PrefixChars:]
	}
	if hints.SuffixChars > 0 && len(suffix) > hints.SuffixChars {
		suffix = suffix[:hints.SuffixChars]
	}

	pc := Context{
		Prefix:     prefix,
		Suffix:     suffix,
		FileHeader: fileHeader(snap),
		LanguageID: snap.LanguageID,
	}

	if hints.TotalChars <= 0 {
		pc.Snippets = snippets
		return pc
	}

	used := len(prefix) + len(suffix) + len(pc.FileHeader)
	for _, s := range snippets {
		cost := len(s.Content) + len(s.SourceURI)
		if used+cost > hints.TotalChars {
			// Snippets are priority-ordered: once one does not fit, lower
			// ranked ones are skipped too rather than reordered in.
			break
		}
		pc.Snippets = append(pc.Snippets, s)
		used += cost
	}
	return pc
}

// fileHeader names the file being completed so the model knows what it is
// looking at even when the prefix starts mid-file.
func fileHeader(snap *document.Snapshot) string {
	name := path.Base(snap.URI)
	if name == "" || name == "." {
		return ""
	}
	return fmt.Sprintf("Path: %s\n", name)
}

// SnippetBlock renders the snippets as commented context blocks, newest-priority
// first, for providers without a native multi-document encoding.
func (c Context) SnippetBlock(commentPrefix string) string {
	if len(c.Snippets) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range c.Snippets {
		fmt.Fprintf(&b, "%s Context from %s (%s):\n", commentPrefix, path.Base(s.SourceURI), s.Kind)
		for _, line := range strings.Split(s.Content, "\n") {
			b.WriteString(commentPrefix)
			b.WriteString(" ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// CommentPrefix returns the line-comment leader for a language, defaulting
// to "//".
func CommentPrefix(languageID string) string {
	switch languageID {
	case "python", "ruby", "shellscript", "yaml", "toml", "r", "perl":
		return "#"
	case "lua", "sql", "haskell":
		return "--"
	default:
		return "//"
	}
}
