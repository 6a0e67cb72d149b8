package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/detect"
	"github.com/albertocavalcante/notesync/cmd/notesync/internal/formats"
	"github.com/albertocavalcante/notesync/pkg/config"
	"github.com/albertocavalcante/notesync/pkg/util"
)

var initFlags struct {
	formats []string
	check   bool
	dryRun  bool
	force   bool
	output  string
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a notesync.toml for a notes directory",
	Long: `Initializes a notes directory for notesync.

This command will:
1. Detect the document formats used in the directory
2. Write notesync.toml with the matching extensions and renderer

Use --check to verify an existing configuration without making changes.
Use --dry-run to preview the file without writing it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringSliceVarP(&initFlags.formats, "formats", "f", nil,
		"Formats to configure (auto-detected if not specified)")
	initCmd.Flags().BoolVar(&initFlags.check, "check", false,
		"Check that the directory is configured (exit 1 if not)")
	initCmd.Flags().BoolVar(&initFlags.dryRun, "dry-run", false,
		"Show the config file without writing it")
	initCmd.Flags().BoolVar(&initFlags.force, "force", false,
		"Overwrite an existing notesync.toml")
	initCmd.Flags().StringVar(&initFlags.output, "to", config.DefaultOutputDir,
		"Output directory to configure, relative to the notes directory")

	rootCmd.AddCommand(initCmd)
}

// errNotConfigured is returned by init --check.
var errNotConfigured = errors.New("directory is not configured for notesync")

func runInit(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	configFile := filepath.Join(absPath, config.ConfigFileName)
	out := cmd.OutOrStdout()

	if initFlags.check {
		return runInitCheck(out, cmd.ErrOrStderr(), configFile)
	}

	// Determine formats
	names := util.SortedSet(initFlags.formats)
	if len(names) == 0 {
		res, err := detect.Formats(absPath, nil)
		if err != nil {
			return fmt.Errorf("failed to detect formats: %w", err)
		}
		names = res.Formats
		for _, name := range names {
			fmt.Fprintf(out, "Detected %d %s documents\n", res.Counts[name], name)
		}
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "No documents detected, defaulting to markdown.")
		names = []string{formats.Markdown}
	}
	for _, name := range names {
		if _, ok := formats.Extensions[name]; !ok {
			return fmt.Errorf("unknown format %q (known: %s)", name, strings.Join(formats.Names(), ", "))
		}
	}

	content, err := generateConfigContent(names, initFlags.output)
	if err != nil {
		return err
	}

	if initFlags.dryRun {
		fmt.Fprintf(out, "Would create %s:\n\n%s", configFile, content)
		return nil
	}

	if fileExists(configFile) && !initFlags.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configFile)
	}
	if err := os.WriteFile(configFile, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", config.ConfigFileName, err)
	}
	fmt.Fprintf(out, "Created %s\n", configFile)

	fmt.Fprintln(out, "\nNext steps:")
	if needsCommand(names) {
		fmt.Fprintln(out, "  1. Set render.command to a program converting your documents to HTML")
		fmt.Fprintln(out, "  2. Run 'notesync sync' to render the tree")
	} else {
		fmt.Fprintln(out, "  1. Run 'notesync sync' to render the tree")
	}
	return nil
}

// needsCommand reports whether any format lacks a built-in renderer.
func needsCommand(names []string) bool {
	for _, name := range names {
		if !formats.Builtin(name) {
			return true
		}
	}
	return false
}

// generateConfigContent renders notesync.toml for the given formats.
func generateConfigContent(names []string, output string) ([]byte, error) {
	cfg := &config.Config{
		Sync: config.SyncConfig{
			Source:     ".",
			Output:     output,
			Extensions: formats.ExtensionList(names),
		},
		Render: config.RenderConfig{
			Renderer: config.RendererMarkdown,
		},
	}
	header := "# notesync configuration\n"
	if needsCommand(names) {
		cfg.Render.Renderer = config.RendererCommand
		cfg.Render.Command = []string{"pandoc", "--standalone", "--to=html"}
		header += "# render.command reads a document on stdin and writes HTML to stdout.\n"
	}

	var buf bytes.Buffer
	buf.WriteString(header + "\n")
	if err := config.Encode(&buf, cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func runInitCheck(out, errOut io.Writer, configFile string) error {
	if !fileExists(configFile) {
		fmt.Fprintf(errOut, "Config file not found at %s\n", configFile)
		fmt.Fprintln(errOut, "\nRun 'notesync init' to create it")
		return errNotConfigured
	}

	cfg, err := config.ReadFile(configFile)
	if err != nil {
		fmt.Fprintf(errOut, "Config file is invalid: %v\n", err)
		return errNotConfigured
	}
	merged := config.NewConfig()
	merged.Merge(cfg)
	if err := merged.Resolve(filepath.Dir(configFile)); err != nil {
		return err
	}
	if err := merged.Validate(); err != nil {
		fmt.Fprintf(errOut, "Config file has issues:\n  %s\n",
			strings.ReplaceAll(err.Error(), "\n", "\n  "))
		return errNotConfigured
	}

	fmt.Fprintln(out, "Directory is properly configured")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
