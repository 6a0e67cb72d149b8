package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusFlags struct {
	verbose bool
	json    bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which directories are out of date",
	Long: `Shows the status of the output tree.

Compares the source tree against the state recorded by the last sync to find
directories that need visiting, without rendering or writing anything.

The --verbose flag lists the documents that would be rendered.
The --json flag outputs the result as JSON for scripting.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.verbose, "verbose", false,
		"List stale documents and index pages")
	statusCmd.Flags().BoolVar(&statusFlags.json, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(statusCmd)
}

// StatusOutput is the JSON output format for notesync status.
type StatusOutput struct {
	Source    string   `json:"source"`
	Output    string   `json:"output"`
	Stale     bool     `json:"stale"`
	StaleDirs []string `json:"stale_dirs"`
	Documents []string `json:"documents,omitempty"`
	Indexes   []string `json:"indexes,omitempty"`
	Dirs      int      `json:"dirs"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, _, err := newEngine(cfg, engineOptions{planOnly: true})
	if err != nil {
		return err
	}

	report, err := engine.Plan(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to detect staleness: %w", err)
	}

	out := cmd.OutOrStdout()
	if statusFlags.json {
		return outputJSON(out, StatusOutput{
			Source:    cfg.Sync.Source,
			Output:    cfg.Sync.Output,
			Stale:     !report.IsEmpty(),
			StaleDirs: report.Visited,
			Documents: report.Rendered,
			Indexes:   report.Indexed,
			Dirs:      report.Dirs,
		})
	}

	if report.IsEmpty() {
		fmt.Fprintf(out, "%s is up to date\n", cfg.Sync.Output)
		return nil
	}

	fmt.Fprintf(out, "Stale directories (%d of %d):\n", len(report.Visited), report.Dirs)
	for _, dir := range report.Visited {
		fmt.Fprintf(out, "  %s\n", dir)
	}

	if statusFlags.verbose {
		if len(report.Rendered) > 0 {
			fmt.Fprintf(out, "\nDocuments to render (%d):\n", len(report.Rendered))
			for _, doc := range report.Rendered {
				fmt.Fprintf(out, "  ~ %s\n", doc)
			}
		}
		if len(report.Indexed) > 0 {
			fmt.Fprintf(out, "\nIndex pages to rebuild (%d):\n", len(report.Indexed))
			for _, dir := range report.Indexed {
				fmt.Fprintf(out, "  + %s\n", dir)
			}
		}
	}

	fmt.Fprintln(out, "\nRun 'notesync sync' to update the output tree")
	return nil
}
