package main

import "testing"

func TestLanguageFromPath(t *testing.T) {
	cases := map[string]string{
		"main.go":        "go",
		"lib/util.py":    "python",
		"app.TSX":        "typescriptreact",
		"src/mod.rs":     "rust",
		"style.scss":     "scss",
		"config.yml":     "yaml",
		"README.md":      "markdown",
		"notes.txt":      "plaintext",
		"Makefile":       "plaintext",
		"component.jsx":  "javascriptreact",
		"index.mjs":      "javascript",
	}
	for path, want := range cases {
		if got := languageFromPath(path); got != want {
			t.Errorf("%s: expected %s, got %s", path, want, got)
		}
	}
}
