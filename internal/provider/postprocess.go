package provider

import (
	"strings"
)

// clean validates and normalizes raw model output into a candidate. Returns
// false when the completion is unusable: empty, whitespace-only, a fenced
// wrapper, or an echo of text already on screen.
func clean(p Provider, req Request, text string) (Candidate, bool) {
	text = stripFences(text)
	text = strings.TrimRight(text, "\n")

	if strings.TrimSpace(text) == "" {
		return Candidate{}, false
	}

	// Models occasionally repeat the tail of the prefix verbatim.
	if tail := lastLine(req.Prompt.Prefix); tail != "" && strings.TrimSpace(text) == strings.TrimSpace(tail) {
		return Candidate{}, false
	}

	// Single-line mode keeps only the first line of a multiline answer.
	if !req.Multiline {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i]
		}
		if strings.TrimSpace(text) == "" {
			return Candidate{}, false
		}
	}

	return Candidate{
		InsertText: text,
		ProviderID: p.ID(),
		ModelID:    p.Model(),
	}, true
}

// stripFences removes a markdown code fence wrapper if the whole completion
// is wrapped in one. Chat-tuned models add these no matter the instructions.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return text
	}
	// Drop the opening fence (possibly with a language tag) and a closing
	// fence if present.
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
