package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotPrefixSuffix(t *testing.T) {
	text := "func main() {\n\tfmt.Println(\"hi\")\n}\n"
	snap := NewSnapshot("file:///main.go", "go", text, Position{Line: 1, Character: 5}, 1)

	assert.Equal(t, "func main() {\n\tfmt.", snap.Prefix())
	assert.Equal(t, "Println(\"hi\")\n}\n", snap.Suffix())
	assert.Equal(t, "\tfmt.Println(\"hi\")", snap.CurrentLine())
}

func TestSnapshotClampsPosition(t *testing.T) {
	text := "one\ntwo"

	snap := NewSnapshot("file:///a", "plaintext", text, Position{Line: 10, Character: 99}, 1)
	assert.Equal(t, Position{Line: 1, Character: 3}, snap.Pos)
	assert.Equal(t, text, snap.Prefix())
	assert.Equal(t, "", snap.Suffix())

	snap = NewSnapshot("file:///a", "plaintext", text, Position{Line: -1, Character: -1}, 1)
	assert.Equal(t, Position{}, snap.Pos)
	assert.Equal(t, "", snap.Prefix())
	assert.Equal(t, text, snap.Suffix())
}

func TestSnapshotCursorAtStartAndEnd(t *testing.T) {
	text := "hello"
	snap := NewSnapshot("file:///a", "plaintext", text, Position{Line: 0, Character: 0}, 1)
	assert.Equal(t, "", snap.Prefix())
	assert.Equal(t, "hello", snap.Suffix())

	snap = NewSnapshot("file:///a", "plaintext", text, Position{Line: 0, Character: 5}, 1)
	assert.Equal(t, "hello", snap.Prefix())
	assert.Equal(t, "", snap.Suffix())
}

func TestSnapshotEmptyDocument(t *testing.T) {
	snap := NewSnapshot("file:///a", "go", "", Position{Line: 0, Character: 0}, 1)
	assert.Equal(t, "", snap.Prefix())
	assert.Equal(t, "", snap.Suffix())
	assert.Equal(t, "", snap.CurrentLine())
}
