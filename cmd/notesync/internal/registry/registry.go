// Package registry maps renderer names from configuration to renderer
// factories, so only the configured renderer is constructed.
package registry

import (
	"fmt"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/incremental"
	"github.com/albertocavalcante/notesync/cmd/notesync/internal/render"
	"github.com/albertocavalcante/notesync/cmd/notesync/internal/runner"
	"github.com/albertocavalcante/notesync/pkg/config"
	"github.com/albertocavalcante/notesync/pkg/util"
)

// RendererFactory creates a renderer from configuration.
type RendererFactory func(cfg *config.Config) (incremental.Renderer, error)

// factories maps renderer names to their factory functions.
var factories = map[string]RendererFactory{
	config.RendererMarkdown: newMarkdown,
	config.RendererCommand:  newCommand,
}

func newMarkdown(cfg *config.Config) (incremental.Renderer, error) {
	opts, err := MarkdownOptions(cfg)
	if err != nil {
		return nil, err
	}
	return render.NewMarkdown(opts), nil
}

// MarkdownOptions translates the [render] section into markdown renderer
// options, reading the stylesheet when it is inlined.
func MarkdownOptions(cfg *config.Config) (render.MarkdownOptions, error) {
	policy, err := render.ParseMathJaxPolicy(cfg.Render.MathJax)
	if err != nil {
		return render.MarkdownOptions{}, err
	}
	if cfg.Render.CodeTheme != "" && !render.IsCodeTheme(cfg.Render.CodeTheme) {
		return render.MarkdownOptions{}, fmt.Errorf("unknown code theme %q (see 'notesync info syntax-themes')", cfg.Render.CodeTheme)
	}
	style, err := render.LoadStylesheet(cfg.Render.Stylesheet, cfg.InlineStyle())
	if err != nil {
		return render.MarkdownOptions{}, err
	}
	return render.MarkdownOptions{
		UnsafeHTML: cfg.AllowUnsafeHTML(),
		CodeTheme:  cfg.Render.CodeTheme,
		Stylesheet: style,
		MathJax:    policy,
	}, nil
}

func newCommand(cfg *config.Config) (incremental.Renderer, error) {
	return render.NewCommand(cfg.Render.Command, runner.New())
}

// LoadRenderer builds the renderer named by cfg.Render.Renderer.
func LoadRenderer(cfg *config.Config) (incremental.Renderer, error) {
	factory, ok := factories[cfg.Render.Renderer]
	if !ok {
		return nil, fmt.Errorf("unknown renderer %q (available: %v)", cfg.Render.Renderer, AvailableRenderers())
	}
	r, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s renderer: %w", cfg.Render.Renderer, err)
	}
	return r, nil
}

// LoadIndexBuilder builds the index page builder for cfg. Index pages share
// the documents' stylesheet.
func LoadIndexBuilder(cfg *config.Config) (incremental.IndexBuilder, error) {
	style, err := render.LoadStylesheet(cfg.Render.Stylesheet, cfg.InlineStyle())
	if err != nil {
		return nil, err
	}
	return render.NewIndex(cfg.Render.IndexTitle, cfg.Sync.IndexName, style), nil
}

// AvailableRenderers returns the registered renderer names, sorted.
func AvailableRenderers() []string {
	return util.SortedKeys(factories)
}

// IsRendererAvailable checks if a renderer factory is registered.
func IsRendererAvailable(name string) bool {
	_, ok := factories[name]
	return ok
}

// RegisterRenderer registers a renderer factory.
// This allows external packages to add new renderers.
func RegisterRenderer(name string, factory RendererFactory) {
	factories[name] = factory
}
