package document

import (
	"sync"
	"time"
)

// Edit records one document change reported by the editor host.
type Edit struct {
	URI        string
	LanguageID string
	// Content is the document text after the edit.
	Content string
	At      time.Time
}

// Copy records one clipboard copy reported by the editor host.
type Copy struct {
	URI     string
	Content string
	At      time.Time
}

const (
	maxEditsPerURI = 10
	maxCopies      = 5
	// Clipboard content above this size is ignored; pasting a whole file into
	// the prompt would crowd out everything else.
	maxCopyChars = 10240
)

// History is the bounded in-memory log of recent edits and copies. The
// recency and recent-copy retrievers read it; the serve loop writes it.
type History struct {
	mu     sync.RWMutex
	edits  map[string][]Edit
	order  []string // URIs, most recently edited first
	copies []Copy
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{edits: make(map[string][]Edit)}
}

// RecordEdit appends an edit, keeping at most maxEditsPerURI per document.
func (h *History) RecordEdit(e Edit) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e.At.IsZero() {
		e.At = time.Now()
	}
	list := append(h.edits[e.URI], e)
	if len(list) > maxEditsPerURI {
		list = list[len(list)-maxEditsPerURI:]
	}
	h.edits[e.URI] = list

	for i, uri := range h.order {
		if uri == e.URI {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.order = append([]string{e.URI}, h.order...)
}

// RecordCopy appends a clipboard entry, dropping oversized content and
// keeping at most maxCopies entries.
func (h *History) RecordCopy(c Copy) {
	if len(c.Content) == 0 || len(c.Content) > maxCopyChars {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.At.IsZero() {
		c.At = time.Now()
	}
	h.copies = append(h.copies, c)
	if len(h.copies) > maxCopies {
		h.copies = h.copies[len(h.copies)-maxCopies:]
	}
}

// EditsSince returns edits newer than the cutoff, excluding the given URI,
// most recent document first.
func (h *History) EditsSince(cutoff time.Time, excludeURI string) []Edit {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []Edit
	for _, uri := range h.order {
		if uri == excludeURI {
			continue
		}
		list := h.edits[uri]
		for i := len(list) - 1; i >= 0; i-- {
			if list[i].At.After(cutoff) {
				out = append(out, list[i])
				break // newest edit per document is enough
			}
		}
	}
	return out
}

// RecentDocuments returns the latest content of up to n recently edited
// documents, excluding the given URI.
func (h *History) RecentDocuments(n int, excludeURI string) []Edit {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []Edit
	for _, uri := range h.order {
		if uri == excludeURI {
			continue
		}
		list := h.edits[uri]
		if len(list) == 0 {
			continue
		}
		out = append(out, list[len(list)-1])
		if len(out) == n {
			break
		}
	}
	return out
}

// Copies returns the clipboard entries, newest first.
func (h *History) Copies() []Copy {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Copy, len(h.copies))
	for i, c := range h.copies {
		out[len(h.copies)-1-i] = c
	}
	return out
}
