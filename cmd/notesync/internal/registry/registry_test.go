package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/incremental"
	"github.com/albertocavalcante/notesync/cmd/notesync/internal/render"
	"github.com/albertocavalcante/notesync/pkg/config"
)

func TestLoadRendererDefault(t *testing.T) {
	cfg := config.NewConfig()

	r, err := LoadRenderer(cfg)
	if err != nil {
		t.Fatalf("LoadRenderer() error = %v", err)
	}
	if _, ok := r.(*render.Markdown); !ok {
		t.Errorf("LoadRenderer() = %T, want *render.Markdown", r)
	}
}

func TestLoadRendererUnknown(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Render.Renderer = "asciidoc"

	_, err := LoadRenderer(cfg)
	if err == nil || !strings.Contains(err.Error(), "unknown renderer") {
		t.Errorf("LoadRenderer() error = %v, want unknown renderer", err)
	}
}

func TestLoadRendererCommandMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	cfg := config.NewConfig()
	cfg.Render.Renderer = config.RendererCommand
	cfg.Render.Command = []string{"no-such-renderer"}

	if _, err := LoadRenderer(cfg); err == nil {
		t.Error("LoadRenderer() expected error for missing program")
	}
}

func TestAvailableRenderers(t *testing.T) {
	want := []string{config.RendererCommand, config.RendererMarkdown}
	if diff := cmp.Diff(want, AvailableRenderers()); diff != "" {
		t.Errorf("AvailableRenderers() mismatch (-want +got):\n%s", diff)
	}
	if IsRendererAvailable("unknown") {
		t.Error("unknown should not be available")
	}
}

func TestRegisterRenderer(t *testing.T) {
	t.Cleanup(func() { delete(factories, "upper") })
	RegisterRenderer("upper", func(*config.Config) (incremental.Renderer, error) {
		return incremental.RendererFunc(func(_ context.Context, src []byte) ([]byte, error) {
			return []byte(strings.ToUpper(string(src))), nil
		}), nil
	})

	cfg := config.NewConfig()
	cfg.Render.Renderer = "upper"
	r, err := LoadRenderer(cfg)
	if err != nil {
		t.Fatalf("LoadRenderer() error = %v", err)
	}
	out, err := r.Render(context.Background(), []byte("abc"))
	if err != nil || string(out) != "ABC" {
		t.Errorf("Render() = %q, %v", out, err)
	}
}

func TestLoadIndexBuilder(t *testing.T) {
	b, err := LoadIndexBuilder(config.NewConfig())
	if err != nil {
		t.Fatalf("LoadIndexBuilder() error = %v", err)
	}
	if _, ok := b.(*render.Index); !ok {
		t.Error("LoadIndexBuilder() should return *render.Index")
	}

	cfg := config.NewConfig()
	inline := true
	cfg.Render.Stylesheet = filepath.Join(t.TempDir(), "missing.css")
	cfg.Render.InlineStylesheet = &inline
	if _, err := LoadIndexBuilder(cfg); err == nil {
		t.Error("LoadIndexBuilder() expected error for a missing inline stylesheet")
	}
}

func TestMarkdownOptions(t *testing.T) {
	css := filepath.Join(t.TempDir(), "notes.css")
	if err := os.WriteFile(css, []byte("h1 { color: navy; }"), 0o644); err != nil {
		t.Fatal(err)
	}
	inline := true

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		check   func(*testing.T, render.MarkdownOptions)
		wantErr string
	}{
		{
			name: "defaults",
			check: func(t *testing.T, o render.MarkdownOptions) {
				if o.MathJax != render.MathJaxAuto || o.CodeTheme != config.DefaultCodeTheme || o.Stylesheet != nil {
					t.Errorf("options = %+v", o)
				}
			},
		},
		{
			name: "linked stylesheet",
			mutate: func(c *config.Config) {
				c.Render.Stylesheet = "https://example.com/notes.css"
				c.Render.MathJax = config.MathJaxNever
			},
			check: func(t *testing.T, o render.MarkdownOptions) {
				if o.Stylesheet == nil || o.Stylesheet.Href != "https://example.com/notes.css" {
					t.Errorf("stylesheet = %+v", o.Stylesheet)
				}
				if o.MathJax != render.MathJaxNever {
					t.Errorf("mathjax = %q", o.MathJax)
				}
			},
		},
		{
			name: "inline stylesheet",
			mutate: func(c *config.Config) {
				c.Render.Stylesheet = css
				c.Render.InlineStylesheet = &inline
			},
			check: func(t *testing.T, o render.MarkdownOptions) {
				if o.Stylesheet == nil || o.Stylesheet.Inline != "h1 { color: navy; }" {
					t.Errorf("stylesheet = %+v", o.Stylesheet)
				}
			},
		},
		{
			name:    "unknown theme",
			mutate:  func(c *config.Config) { c.Render.CodeTheme = "no-such-theme" },
			wantErr: "unknown code theme",
		},
		{
			name:    "bad mathjax",
			mutate:  func(c *config.Config) { c.Render.MathJax = "sometimes" },
			wantErr: "mathjax",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			opts, err := MarkdownOptions(cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("MarkdownOptions() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("MarkdownOptions() error = %v", err)
			}
			tt.check(t, opts)
		})
	}
}
