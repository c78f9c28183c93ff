package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inlay/internal/config"
	"inlay/internal/delay"
	"inlay/internal/document"
	"inlay/internal/engine"
	"inlay/internal/provider"
	"inlay/internal/retrieval"
)

var (
	completeFile     string
	completeLine     int
	completeCol      int
	completeLanguage string
)

// completeCmd runs a single completion request against the active provider.
var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Run one completion for a file position",
	Long: `Reads the file, places the cursor at --line/--col (zero-based), runs the
full retrieval and dispatch pipeline once, and prints the suggestion.

Example:
  inlay complete --file main.go --line 41 --col 8`,
	RunE: runComplete,
}

func init() {
	completeCmd.Flags().StringVar(&completeFile, "file", "", "file to complete (required)")
	completeCmd.Flags().IntVar(&completeLine, "line", 0, "cursor line, zero-based")
	completeCmd.Flags().IntVar(&completeCol, "col", 0, "cursor column, zero-based")
	completeCmd.Flags().StringVar(&completeLanguage, "language", "", "language id (default: from file extension)")
	_ = completeCmd.MarkFlagRequired("file")
}

func runComplete(cmd *cobra.Command, args []string) error {
	uc, err := loadConfig()
	if err != nil {
		return err
	}

	text, err := os.ReadFile(completeFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", completeFile, err)
	}
	lang := completeLanguage
	if lang == "" {
		lang = languageFromPath(completeFile)
	}

	coord, history, cleanup, err := buildCoordinator(cmd, uc)
	if err != nil {
		return err
	}
	defer cleanup()
	seedHistory(history, completeFile)

	snap := document.NewSnapshot(completeFile, lang, string(text),
		document.Position{Line: completeLine, Character: completeCol}, 1)
	trig := document.TriggerContext{
		URI:        completeFile,
		LanguageID: lang,
		Kind:       document.TriggerManual,
		Timestamp:  time.Now(),
	}

	start := time.Now()
	result := coord.Trigger(cmd.Context(), snap, trig)
	logger.Debug("completion finished",
		zap.String("state", result.State.String()),
		zap.Duration("elapsed", time.Since(start)))

	switch result.State {
	case engine.StateCompleted:
		for _, c := range result.Candidates {
			fmt.Println(c.InsertText)
		}
		return nil
	case engine.StateCancelled:
		return nil
	default:
		if result.Err != nil {
			return fmt.Errorf("no suggestion: %w", result.Err)
		}
		return fmt.Errorf("no suggestion")
	}
}

// buildCoordinator wires the provider, retrieval factory and delay flags
// into a coordinator runtime from user config.
func buildCoordinator(cmd *cobra.Command, uc *config.UserConfig) (*engine.Coordinator, *document.History, func(), error) {
	p, err := provider.FromUserConfig(cmd.Context(), uc)
	if err != nil {
		return nil, nil, nil, err
	}
	history := document.NewHistory()
	factory, err := retrieval.NewFactory(uc.ContextStrategy, history)
	if err != nil {
		return nil, nil, nil, err
	}
	rt := &engine.Runtime{
		Provider: p,
		Factory:  factory,
		Flags: delay.Flags{
			Disable:     uc.DisableArtificialDelay,
			UserLatency: uc.UserLatencyEnabled,
		},
		TriggerDelay:    time.Duration(uc.TriggerDelay()) * time.Millisecond,
		Completions:     uc.Completions,
		Timeouts:        uc.Timeouts,
		LanguageEnabled: uc.LanguageEnabled,
	}
	coord := engine.New(rt)
	return coord, history, factory.Close, nil
}

// seedHistory loads sibling files into the edit history so the one-shot
// command has something to retrieve from; the serve loop gets real events.
func seedHistory(history *document.History, target string) {
	dir := filepath.Dir(target)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	targetExt := filepath.Ext(target)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if p == target || filepath.Ext(p) != targetExt {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil || len(data) > 1<<20 {
			continue
		}
		history.RecordEdit(document.Edit{
			URI:        p,
			LanguageID: languageFromPath(p),
			Content:    string(data),
		})
	}
}

func languageFromPath(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".mjs":
		return "javascript"
	case ".jsx":
		return "javascriptreact"
	case ".ts":
		return "typescript"
	case ".tsx":
		return "typescriptreact"
	case ".rs":
		return "rust"
	case ".css":
		return "css"
	case ".scss":
		return "scss"
	case ".html", ".htm":
		return "html"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".md":
		return "markdown"
	default:
		return "plaintext"
	}
}
