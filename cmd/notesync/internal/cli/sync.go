package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/incremental"
)

var syncFlags struct {
	full    bool
	jobs    int
	dryRun  bool
	json    bool
	verbose bool
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Render changed documents and rebuild affected index pages",
	Long: `Synchronizes the output tree with the source tree.

Only directories whose contents changed since the last sync are visited:
changed documents are re-rendered and directories whose listing changed get
a new index page. Use --full to ignore recorded state and rebuild everything.

Output files of deleted or renamed documents are left in place.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncFlags.full, "full", false,
		"Ignore recorded state and rebuild everything")
	syncCmd.Flags().IntVarP(&syncFlags.jobs, "jobs", "j", 0,
		"Documents rendered concurrently per directory (default from config)")
	syncCmd.Flags().BoolVar(&syncFlags.dryRun, "dry-run", false,
		"Show what would be rendered without writing anything")
	syncCmd.Flags().BoolVar(&syncFlags.json, "json", false,
		"Output the run report as JSON")
	syncCmd.Flags().BoolVar(&syncFlags.verbose, "verbose", false,
		"List every rendered document and rebuilt index")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, _, err := newEngine(cfg, engineOptions{
		full:     syncFlags.full,
		jobs:     syncFlags.jobs,
		planOnly: syncFlags.dryRun,
	})
	if err != nil {
		return err
	}

	var report *incremental.Report
	if syncFlags.dryRun {
		report, err = engine.Plan(cmd.Context())
	} else {
		report, err = engine.Run(cmd.Context())
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if syncFlags.json {
		return outputJSON(out, report)
	}
	printSyncReport(out, report, syncFlags.dryRun, syncFlags.verbose)
	return nil
}

func printSyncReport(w io.Writer, report *incremental.Report, dryRun, verbose bool) {
	if report.IsEmpty() {
		fmt.Fprintf(w, "Output is up to date (%d directories, %d documents)\n", report.Dirs, report.Documents)
		return
	}

	verb, indexVerb := "Rendered", "rebuilt"
	if dryRun {
		verb, indexVerb = "Would render", "rebuild"
	}
	if verbose || dryRun {
		for _, doc := range report.Rendered {
			fmt.Fprintf(w, "  render %s\n", doc)
		}
		for _, dir := range report.Indexed {
			fmt.Fprintf(w, "  index  %s\n", dir)
		}
	}
	fmt.Fprintf(w, "%s %d documents, %s %d index pages (%d of %d directories unchanged)",
		verb, len(report.Rendered), indexVerb, len(report.Indexed), report.SkippedDirs(), report.Dirs)
	if !dryRun {
		fmt.Fprintf(w, " in %s", report.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(w)
}

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
