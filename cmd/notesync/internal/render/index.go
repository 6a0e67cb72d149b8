package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/incremental"
)

// DefaultIndexTitle prefixes the directory path in index page titles.
const DefaultIndexTitle = "Index of"

// Index builds HTML listing pages for directories.
type Index struct {
	title     string
	indexName string
	style     *Stylesheet
}

// NewIndex creates an index builder. An empty title uses DefaultIndexTitle
// and an empty indexName uses incremental.DefaultIndexName; the latter is
// needed for the link back to the parent directory. A nil style leaves
// pages unstyled.
func NewIndex(title, indexName string, style *Stylesheet) *Index {
	if title == "" {
		title = DefaultIndexTitle
	}
	if indexName == "" {
		indexName = incremental.DefaultIndexName
	}
	return &Index{title: title, indexName: indexName, style: style}
}

type indexData struct {
	Title      string
	Parent     string
	Entries    []indexEntry
	Stylesheet *Stylesheet
}

type indexEntry struct {
	Name  string
	Href  string
	Class string
}

// BuildIndex renders the listing page for dir.
func (x *Index) BuildIndex(ctx context.Context, dir *incremental.Dir, entries []incremental.IndexEntry) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := indexData{
		Title:      x.title + " " + displayPath(dir.RelPath()),
		Entries:    make([]indexEntry, 0, len(entries)),
		Stylesheet: x.style,
	}
	if dir.RelPath() != "." {
		data.Parent = "../" + x.indexName
	}
	for _, e := range entries {
		name := e.Name
		if e.Kind == incremental.KindDir {
			name += "/"
		}
		data.Entries = append(data.Entries, indexEntry{Name: name, Href: e.Href, Class: e.Kind.String()})
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render index for %s: %w", dir.RelPath(), err)
	}
	return buf.Bytes(), nil
}

func displayPath(rel string) string {
	if rel == "." {
		return "/"
	}
	return "/" + rel
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
` + stylesheetBlock + `</head>
<body>
<h1>{{.Title}}</h1>
<ul>
{{- if .Parent}}
<li class="dir"><a href="{{.Parent}}">../</a></li>
{{- end}}
{{- range .Entries}}
<li class="{{.Class}}"><a href="{{.Href}}">{{.Name}}</a></li>
{{- end}}
</ul>
</body>
</html>
`))
