package render

import (
	"fmt"
	"html/template"
	"os"
	"regexp"

	"github.com/yuin/goldmark/ast"
)

// Stylesheet is added to the head of every page. It is linked through Href
// unless Inline holds the stylesheet's content.
type Stylesheet struct {
	Href   string
	Inline template.CSS
}

// LoadStylesheet returns a stylesheet linking path, or carrying the content
// of path when inline is set. An empty path means no stylesheet.
func LoadStylesheet(path string, inline bool) (*Stylesheet, error) {
	if path == "" {
		return nil, nil
	}
	if !inline {
		return &Stylesheet{Href: path}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stylesheet: %w", err)
	}
	return &Stylesheet{Inline: template.CSS(data)}, nil
}

// MathJaxPolicy decides which pages load MathJax.
type MathJaxPolicy string

const (
	// MathJaxAuto loads MathJax on pages whose text holds TeX delimiters.
	MathJaxAuto   MathJaxPolicy = "auto"
	MathJaxAlways MathJaxPolicy = "always"
	MathJaxNever  MathJaxPolicy = "never"
)

// ParseMathJaxPolicy parses a policy name. The empty string is MathJaxAuto.
func ParseMathJaxPolicy(s string) (MathJaxPolicy, error) {
	switch p := MathJaxPolicy(s); p {
	case "":
		return MathJaxAuto, nil
	case MathJaxAuto, MathJaxAlways, MathJaxNever:
		return p, nil
	default:
		return "", fmt.Errorf("unknown mathjax policy %q (want auto, always or never)", s)
	}
}

// Include reports whether the page parsed into doc loads MathJax.
func (p MathJaxPolicy) Include(doc ast.Node, source []byte) bool {
	switch p {
	case MathJaxAlways:
		return true
	case MathJaxNever:
		return false
	default:
		return HasMath(doc, source)
	}
}

// mathPattern matches the delimiters the page's MathJax config enables:
// $$...$$ for display math and $...$ for inline math. An inline span must
// not start or end with a space, so prices like "$5 and $6" do not count.
var mathPattern = regexp.MustCompile(`\$\$[\s\S]+?\$\$|\$[^\s$](?:[^$\n]*[^\s$])?\$`)

// HasMath reports whether the prose of doc holds TeX math. Code spans, code
// blocks and raw HTML are not looked at.
func HasMath(doc ast.Node, source []byte) bool {
	var buf []byte
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				buf = append(buf, '\n')
			}
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.CodeSpan, *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			buf = append(buf, t.Segment.Value(source)...)
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf = append(buf, '\n')
			}
		case *ast.String:
			buf = append(buf, t.Value...)
		}
		return ast.WalkContinue, nil
	})
	return mathPattern.Match(buf)
}

// stylesheetBlock renders a .Stylesheet in a page head.
const stylesheetBlock = `{{- with .Stylesheet}}
{{- if .Inline}}
<style>{{.Inline}}</style>
{{- else}}
<link rel="stylesheet" type="text/css" href="{{.Href}}">
{{- end}}
{{- end}}
`

type pageData struct {
	Title      string
	Body       template.HTML
	Stylesheet *Stylesheet
	MathJax    bool
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
` + stylesheetBlock + `</head>
<body>
{{.Body}}
{{- if .MathJax}}
<footer>
<script type="text/x-mathjax-config">
MathJax.Hub.Config({
  extensions: ["tex2jax.js"],
  jax: ["input/TeX", "output/HTML-CSS"],
  tex2jax: {
    inlineMath: [['$','$']],
    displayMath: [['$$','$$']],
    processEscapes: true
  },
  "HTML-CSS": { fonts: ["TeX"] }
});
</script>
<script type="text/javascript" src="https://cdnjs.cloudflare.com/ajax/libs/mathjax/2.7.5/MathJax.js"></script>
</footer>
{{- end}}
</body>
</html>
`))
