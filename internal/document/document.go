// Package document holds the immutable views of editor state that the
// completion pipeline consumes: cursor snapshots, trigger metadata, and the
// bounded history of recent edits and copies that retrievers mine for context.
package document

import (
	"strings"
	"time"
)

// Position is a zero-based cursor location.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// TriggerKind distinguishes automatic (keystroke) from manual invocation.
type TriggerKind int

const (
	TriggerAutomatic TriggerKind = iota
	TriggerManual
)

func (k TriggerKind) String() string {
	if k == TriggerManual {
		return "manual"
	}
	return "automatic"
}

// Snapshot is an immutable view of a document at trigger time. It is owned by
// exactly one trigger and never mutated; a new trigger takes a new snapshot.
type Snapshot struct {
	URI        string
	LanguageID string
	Text       string
	Pos        Position
	Version    int
}

// NewSnapshot builds a snapshot, clamping the position into the text.
func NewSnapshot(uri, languageID, text string, pos Position, version int) *Snapshot {
	lines := strings.Split(text, "\n")
	if pos.Line < 0 {
		pos.Line = 0
	}
	if pos.Line >= len(lines) {
		pos.Line = len(lines) - 1
	}
	if pos.Character < 0 {
		pos.Character = 0
	}
	if n := len(lines[pos.Line]); pos.Character > n {
		pos.Character = n
	}
	return &Snapshot{URI: uri, LanguageID: languageID, Text: text, Pos: pos, Version: version}
}

// offset converts the snapshot position into a byte offset into Text.
func (s *Snapshot) offset() int {
	off := 0
	line := 0
	for i := 0; i < len(s.Text); i++ {
		if line == s.Pos.Line {
			return off + s.Pos.Character
		}
		if s.Text[i] == '\n' {
			line++
			off = i + 1
		}
	}
	return off + s.Pos.Character
}

// Prefix returns the text before the cursor.
func (s *Snapshot) Prefix() string {
	off := s.offset()
	if off > len(s.Text) {
		off = len(s.Text)
	}
	return s.Text[:off]
}

// Suffix returns the text after the cursor.
func (s *Snapshot) Suffix() string {
	off := s.offset()
	if off > len(s.Text) {
		off = len(s.Text)
	}
	return s.Text[off:]
}

// CurrentLine returns the full line under the cursor.
func (s *Snapshot) CurrentLine() string {
	lines := strings.Split(s.Text, "\n")
	if s.Pos.Line < len(lines) {
		return lines[s.Pos.Line]
	}
	return ""
}

// TriggerContext carries per-trigger metadata. Created per keystroke or
// selection event and discarded once its request resolves or is superseded.
type TriggerContext struct {
	URI        string
	LanguageID string
	Kind       TriggerKind
	// SelectedCompletionInfo is the text of the popup item the editor has
	// selected, when a completion widget is open.
	SelectedCompletionInfo string
	Timestamp              time.Time
	// NodeType is an opaque syntax classification of the cursor location
	// ("comment", "arguments", ...) supplied by the host's classifier.
	NodeType string
}
