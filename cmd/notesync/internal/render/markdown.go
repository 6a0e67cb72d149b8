// Package render provides the document renderers and the index page
// builder used by the sync engine.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// MarkdownOptions configures the built-in markdown renderer.
type MarkdownOptions struct {
	// UnsafeHTML passes raw HTML in documents through unchanged.
	UnsafeHTML bool
	// BodyOnly skips the page wrapper and returns the HTML fragment.
	BodyOnly bool
	// CodeTheme highlights fenced code blocks with a known language.
	// DefaultCodeTheme when empty.
	CodeTheme string
	// Stylesheet is added to every page when set.
	Stylesheet *Stylesheet
	// MathJax decides which pages load MathJax. MathJaxAuto when empty.
	MathJax MathJaxPolicy
}

// Markdown renders GitHub flavored markdown into a standalone HTML page.
type Markdown struct {
	md   goldmark.Markdown
	opts MarkdownOptions
}

// NewMarkdown creates a markdown renderer.
func NewMarkdown(opts MarkdownOptions) *Markdown {
	if opts.CodeTheme == "" {
		opts.CodeTheme = DefaultCodeTheme
	}
	if opts.MathJax == "" {
		opts.MathJax = MathJaxAuto
	}
	rendererOpts := []goldmark.Option{
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(highlighting.WithStyle(opts.CodeTheme)),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if opts.UnsafeHTML {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	return &Markdown{md: goldmark.New(rendererOpts...), opts: opts}
}

// Render converts markdown source to HTML.
func (m *Markdown) Render(ctx context.Context, source []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc := m.md.Parser().Parse(text.NewReader(source))

	var body bytes.Buffer
	if err := m.md.Renderer().Render(&body, source, doc); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	if m.opts.BodyOnly {
		return body.Bytes(), nil
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, pageData{
		Title:      Title(doc, source),
		Body:       template.HTML(body.String()),
		Stylesheet: m.opts.Stylesheet,
		MathJax:    m.opts.MathJax.Include(doc, source),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return page.Bytes(), nil
}

// Title returns the text of the first level-one heading in doc, or "".
func Title(doc ast.Node, source []byte) string {
	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		title = headingText(h, source)
		return ast.WalkStop, nil
	})
	return title
}

func headingText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		default:
			sb.WriteString(headingText(c, source))
		}
	}
	return strings.TrimSpace(sb.String())
}
