package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
)

func TestHasMath(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   bool
	}{
		{name: "inline", source: "Euler: $e^{i\\pi} + 1 = 0$.", want: true},
		{name: "display", source: "$$\n\\int_0^1 x\\,dx\n$$\n", want: true},
		{name: "prices", source: "Lunch was $5 and coffee $3.", want: false},
		{name: "plain", source: "# Notes\n\nNothing to see.", want: false},
		{name: "code span", source: "Run `echo $HOME/$PATH` first.", want: false},
		{name: "fenced code", source: "```sh\nexport A=$B$C\n```\n", want: false},
		{name: "heading", source: "# The $n$-th term\n", want: true},
	}

	md := goldmark.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := []byte(tt.source)
			doc := md.Parser().Parse(text.NewReader(src))
			if got := HasMath(doc, src); got != tt.want {
				t.Errorf("HasMath(%q) = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}

func TestParseMathJaxPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    MathJaxPolicy
		wantErr bool
	}{
		{in: "", want: MathJaxAuto},
		{in: "auto", want: MathJaxAuto},
		{in: "always", want: MathJaxAlways},
		{in: "never", want: MathJaxNever},
		{in: "sometimes", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseMathJaxPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMathJaxPolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMathJaxPolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadStylesheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.css")
	if err := os.WriteFile(path, []byte("body { color: red; }"), 0o644); err != nil {
		t.Fatal(err)
	}

	if s, err := LoadStylesheet("", true); s != nil || err != nil {
		t.Errorf("LoadStylesheet(\"\") = %+v, %v; want nil, nil", s, err)
	}

	link, err := LoadStylesheet(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if link.Href != path || link.Inline != "" {
		t.Errorf("linked stylesheet = %+v", link)
	}

	inline, err := LoadStylesheet(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if inline.Inline != "body { color: red; }" {
		t.Errorf("inline stylesheet = %q", inline.Inline)
	}

	if _, err := LoadStylesheet(filepath.Join(t.TempDir(), "missing.css"), true); err == nil {
		t.Error("LoadStylesheet() expected error for a missing file")
	}
}

func TestPageStylesheetAndMathJax(t *testing.T) {
	tests := []struct {
		name    string
		opts    MarkdownOptions
		source  string
		want    []string
		notWant []string
	}{
		{
			name:   "linked stylesheet",
			opts:   MarkdownOptions{Stylesheet: &Stylesheet{Href: "/styles/github.css"}},
			source: "hi",
			want:   []string{`<link rel="stylesheet" type="text/css" href="/styles/github.css">`},
		},
		{
			name:    "inline stylesheet",
			opts:    MarkdownOptions{Stylesheet: &Stylesheet{Inline: "p { margin: 0; }"}},
			source:  "hi",
			want:    []string{"<style>p { margin: 0; }</style>"},
			notWant: []string{"<link"},
		},
		{
			name:    "auto without math",
			source:  "no math here",
			notWant: []string{"MathJax.js"},
		},
		{
			name:   "auto with math",
			source: "area $\\pi r^2$",
			want:   []string{`<script type="text/x-mathjax-config">`, "MathJax.js"},
		},
		{
			name:   "always",
			opts:   MarkdownOptions{MathJax: MathJaxAlways},
			source: "no math here",
			want:   []string{"MathJax.js"},
		},
		{
			name:    "never",
			opts:    MarkdownOptions{MathJax: MathJaxNever},
			source:  "area $\\pi r^2$",
			notWant: []string{"MathJax.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewMarkdown(tt.opts).Render(context.Background(), []byte(tt.source))
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			got := string(out)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Render() missing %q in:\n%s", w, got)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("Render() unexpectedly contains %q in:\n%s", w, got)
				}
			}
		})
	}
}

func TestCodeThemes(t *testing.T) {
	themes := CodeThemes()
	if len(themes) == 0 {
		t.Fatal("CodeThemes() returned nothing")
	}
	if !IsCodeTheme(DefaultCodeTheme) {
		t.Errorf("default theme %q is not known", DefaultCodeTheme)
	}
	if IsCodeTheme("no-such-theme") {
		t.Error("IsCodeTheme() accepted an unknown theme")
	}
}
