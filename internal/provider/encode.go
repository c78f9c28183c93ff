package provider

import (
	"fmt"
	"strings"

	"inlay/internal/prompt"
)

// Chat-tuned backends (anthropic, openai, gemini) share one instruction
// encoding; FIM backends build raw infill prompts instead.

const continuationSystem = `You are a code completion engine inside an editor.
Continue the code exactly from where the prefix ends.
Output ONLY the raw code to insert at the cursor. No markdown, no explanations, no repetition of existing code.`

const infillSystem = `You are a code completion engine inside an editor.
Code before and after the cursor is provided; fill the gap between them.
Output ONLY the raw code to insert at the cursor. No markdown, no explanations, no repetition of existing code.`

// chatPrompt renders the shared system/user message pair for chat backends.
func chatPrompt(p Provider, req Request) (system, user string) {
	var b strings.Builder

	if block := req.Prompt.SnippetBlock(prompt.CommentPrefix(req.LanguageID)); block != "" {
		b.WriteString(block)
	}
	if req.Prompt.FileHeader != "" {
		b.WriteString(req.Prompt.FileHeader)
	}

	if useInfill(p, req) {
		fmt.Fprintf(&b, "<code_before_cursor>\n%s\n</code_before_cursor>\n", req.Prompt.Prefix)
		fmt.Fprintf(&b, "<code_after_cursor>\n%s\n</code_after_cursor>\n", req.Prompt.Suffix)
		return infillSystem, b.String()
	}

	b.WriteString(req.Prompt.Prefix)
	return continuationSystem, b.String()
}

// stopSequences keeps single-line completions from running on.
func stopSequences(req Request) []string {
	if req.Multiline {
		return []string{"\n\n\n"}
	}
	return []string{"\n"}
}
