package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/incremental"
	"github.com/albertocavalcante/notesync/cmd/notesync/internal/registry"
	"github.com/albertocavalcante/notesync/cmd/notesync/internal/render"
	"github.com/albertocavalcante/notesync/pkg/config"
)

var renderFlags struct {
	bodyOnly    bool
	stylesheet  string
	inlineStyle bool
	mathjax     string
	codeTheme   string
}

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render a single document to standard output",
	Long: `Renders one document with the configured renderer and writes the result
to standard output. Reads standard input when no file is given.

The stylesheet, MathJax and code theme flags override the [render] section
of the configuration for this document only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderFlags.bodyOnly, "body-only", false,
		"Emit the HTML fragment without the page wrapper (markdown renderer only)")
	renderCmd.Flags().StringVar(&renderFlags.stylesheet, "stylesheet", "",
		"Stylesheet file or URL to include")
	renderCmd.Flags().BoolVar(&renderFlags.inlineStyle, "inline-style", false,
		"Inline the stylesheet in the rendered HTML")
	renderCmd.Flags().StringVar(&renderFlags.mathjax, "mathjax", "",
		"Policy for loading MathJax from a CDN (auto, always, never)")
	renderCmd.Flags().StringVar(&renderFlags.codeTheme, "code-theme", "",
		"Syntax highlighting theme for code blocks")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRenderFlags(cmd, cfg); err != nil {
		return err
	}

	var source []byte
	if len(args) == 0 || args[0] == "-" {
		source, err = io.ReadAll(cmd.InOrStdin())
	} else {
		source, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	var renderer incremental.Renderer
	switch {
	case renderFlags.bodyOnly && cfg.Render.Renderer != config.RendererMarkdown:
		return errors.New("--body-only requires the markdown renderer")
	case renderFlags.bodyOnly:
		opts, err := registry.MarkdownOptions(cfg)
		if err != nil {
			return err
		}
		opts.BodyOnly = true
		renderer = render.NewMarkdown(opts)
	default:
		if renderer, err = registry.LoadRenderer(cfg); err != nil {
			return err
		}
	}

	out, err := renderer.Render(cmd.Context(), source)
	if err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// applyRenderFlags layers the flags the user set over cfg.Render.
func applyRenderFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("stylesheet") {
		style := renderFlags.stylesheet
		if style != "" && !config.IsURL(style) {
			abs, err := flagPath(style)
			if err != nil {
				return err
			}
			style = abs
		}
		cfg.Render.Stylesheet = style
	}
	if flags.Changed("inline-style") {
		inline := renderFlags.inlineStyle
		cfg.Render.InlineStylesheet = &inline
	}
	if flags.Changed("mathjax") {
		cfg.Render.MathJax = renderFlags.mathjax
	}
	if flags.Changed("code-theme") {
		cfg.Render.CodeTheme = renderFlags.codeTheme
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid render options: %w", err)
	}
	return nil
}
