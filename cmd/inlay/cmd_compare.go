package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"inlay/internal/compare"
	"inlay/internal/document"
)

var (
	compareFile     string
	compareLine     int
	compareCol      int
	compareLanguage string
	compareFormat   string
)

// compareCmd runs every configured provider/strategy branch against the same
// position and prints a side-by-side report.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare completion output across configured providers",
	Long: `Runs one completion per entry in the config "compare" list for the same
file position, outside the primary completion path, and prints a report of
provider/model/strategy against the returned text.

Example:
  inlay compare --file main.go --line 41 --col 8 --format yaml`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareFile, "file", "", "file to complete (required)")
	compareCmd.Flags().IntVar(&compareLine, "line", 0, "cursor line, zero-based")
	compareCmd.Flags().IntVar(&compareCol, "col", 0, "cursor column, zero-based")
	compareCmd.Flags().StringVar(&compareLanguage, "language", "", "language id (default: from file extension)")
	compareCmd.Flags().StringVar(&compareFormat, "format", "text", "report format: text or yaml")
	_ = compareCmd.MarkFlagRequired("file")
}

func runCompare(cmd *cobra.Command, args []string) error {
	uc, err := loadConfig()
	if err != nil {
		return err
	}

	text, err := os.ReadFile(compareFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", compareFile, err)
	}
	lang := compareLanguage
	if lang == "" {
		lang = languageFromPath(compareFile)
	}

	history := document.NewHistory()
	seedHistory(history, compareFile)

	dispatcher, err := compare.NewDispatcher(cmd.Context(), uc, history)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	snap := document.NewSnapshot(compareFile, lang, string(text),
		document.Position{Line: compareLine, Character: compareCol}, 1)

	outcomes, err := dispatcher.Run(cmd.Context(), snap)
	if err != nil {
		return err
	}

	switch compareFormat {
	case "yaml":
		out, err := compare.RenderYAML(outcomes)
		if err != nil {
			return err
		}
		fmt.Print(out)
	default:
		fmt.Print(compare.RenderText(outcomes))
	}
	return nil
}
