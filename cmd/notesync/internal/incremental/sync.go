package incremental

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/errgroup"
)

// DefaultIndexName is the file name of each directory's index page.
const DefaultIndexName = "index.html"

// Renderer converts a document's source text into its rendered form.
type Renderer interface {
	Render(ctx context.Context, source []byte) ([]byte, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, source []byte) ([]byte, error)

func (f RendererFunc) Render(ctx context.Context, source []byte) ([]byte, error) {
	return f(ctx, source)
}

// IndexEntry is one child listed on a directory's index page.
type IndexEntry struct {
	Name string
	Kind Kind
	// Href is relative to the directory's output location.
	Href       string
	SourcePath string
}

// IndexBuilder produces the index page for a directory.
type IndexBuilder interface {
	BuildIndex(ctx context.Context, dir *Dir, entries []IndexEntry) ([]byte, error)
}

// IndexBuilderFunc adapts a function to IndexBuilder.
type IndexBuilderFunc func(ctx context.Context, dir *Dir, entries []IndexEntry) ([]byte, error)

func (f IndexBuilderFunc) BuildIndex(ctx context.Context, dir *Dir, entries []IndexEntry) ([]byte, error) {
	return f(ctx, dir, entries)
}

// Options configures an Engine.
type Options struct {
	Source     string
	Output     string
	Extensions []string // renderable extensions, DefaultExtensions when empty
	Ignore     Matcher

	// Store defaults to a FileStore on the engine's filesystem.
	Store        Store
	Renderer     Renderer
	IndexBuilder IndexBuilder
	IndexName    string // DefaultIndexName when empty

	// Full ignores recorded state and rebuilds everything.
	Full bool
	// Jobs bounds how many documents of one directory render concurrently.
	Jobs int

	Logger *slog.Logger
}

// Engine mirrors Options.Source into Options.Output.
type Engine struct {
	fs     billy.Filesystem
	opts   Options
	store  Store
	logger *slog.Logger
}

// New validates opts and creates an engine operating on fs.
func New(fs billy.Filesystem, opts Options) (*Engine, error) {
	if opts.Source == "" {
		return nil, newError(CodeInvalidInput, "configure engine", "", errors.New("source root is required"))
	}
	if opts.Output == "" {
		return nil, newError(CodeInvalidInput, "configure engine", "", errors.New("output root is required"))
	}
	opts.Source = filepath.Clean(opts.Source)
	opts.Output = filepath.Clean(opts.Output)
	if opts.Source == opts.Output {
		return nil, newError(CodeInvalidInput, "configure engine", opts.Output, errors.New("output root must differ from source root"))
	}
	if opts.IndexName == "" {
		opts.IndexName = DefaultIndexName
	}
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}

	e := &Engine{fs: fs, opts: opts, store: opts.Store, logger: opts.Logger}
	if e.store == nil {
		e.store = NewFileStore(fs)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e, nil
}

// Run synchronizes the output tree. Records are written only after every
// visited directory has been processed, so a failed run is redone in full
// by the next one.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	if e.opts.Renderer == nil || e.opts.IndexBuilder == nil {
		return nil, newError(CodeInvalidInput, "run sync", "", errors.New("renderer and index builder are required"))
	}
	start := time.Now()

	if err := e.fs.MkdirAll(e.opts.Output, 0o755); err != nil {
		return nil, newError(CodeIO, "create output root", e.opts.Output, err)
	}
	tree, err := e.buildTree(ctx)
	if err != nil {
		return nil, err
	}

	report := newReport(tree, e.opts.Full)
	var visited []*Dir
	for item := range NewWalker(tree.Root, e.store, e.opts.Full, e.logger).All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.process(ctx, item); err != nil {
			return nil, err
		}
		report.add(item)
		visited = append(visited, item.Dir)
	}

	for _, d := range visited {
		if err := e.store.Save(d.output, NewRecord(d)); err != nil {
			if CodeOf(err) == "" {
				err = newError(CodeIO, "save state record", d.output, err)
			}
			return nil, err
		}
	}

	report.Duration = time.Since(start)
	e.logger.Info("sync complete",
		"visited", len(report.Visited),
		"rendered", len(report.Rendered),
		"indexed", len(report.Indexed),
		"skipped", report.SkippedDirs(),
		"duration", report.Duration,
	)
	return report, nil
}

// Plan reports what Run would do without rendering or writing anything.
func (e *Engine) Plan(ctx context.Context) (*Report, error) {
	start := time.Now()
	tree, err := e.buildTree(ctx)
	if err != nil {
		return nil, err
	}
	report := newReport(tree, e.opts.Full)
	for item := range NewWalker(tree.Root, e.store, e.opts.Full, e.logger).All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.add(item)
	}
	report.Duration = time.Since(start)
	return report, nil
}

func (e *Engine) buildTree(ctx context.Context) (*Tree, error) {
	return BuildTree(ctx, e.fs, TreeConfig{
		Source:     e.opts.Source,
		Output:     e.opts.Output,
		Extensions: e.opts.Extensions,
		Ignore:     e.opts.Ignore,
		Logger:     e.logger,
	})
}

func (e *Engine) process(ctx context.Context, item *WorkItem) error {
	dir := item.Dir
	if err := e.fs.MkdirAll(dir.output, 0o755); err != nil {
		return newError(CodeIO, "create output directory", dir.output, err)
	}
	if err := e.renderAll(ctx, item.Stale); err != nil {
		return err
	}
	if item.RebuildIndex {
		return e.writeIndex(ctx, dir)
	}
	return nil
}

func (e *Engine) renderAll(ctx context.Context, docs []*Document) error {
	if e.opts.Jobs == 1 || len(docs) < 2 {
		for _, doc := range docs {
			if err := e.render(ctx, doc); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Jobs)
	for _, doc := range docs {
		g.Go(func() error {
			return e.render(gctx, doc)
		})
	}
	return g.Wait()
}

func (e *Engine) render(ctx context.Context, doc *Document) error {
	src, err := util.ReadFile(e.fs, doc.source)
	if err != nil {
		return newError(CodeIO, "read document", doc.source, err)
	}
	out, err := e.opts.Renderer.Render(ctx, src)
	if err != nil {
		return newError(CodeRenderFailed, "render", doc.source, err)
	}
	if err := util.WriteFile(e.fs, doc.output, out, 0o644); err != nil {
		return newError(CodeIO, "write rendered document", doc.output, err)
	}
	e.logger.Info("rendered document", "path", doc.rel)
	return nil
}

func (e *Engine) writeIndex(ctx context.Context, dir *Dir) error {
	page, err := e.opts.IndexBuilder.BuildIndex(ctx, dir, IndexEntries(dir, e.opts.IndexName))
	if err != nil {
		return newError(CodeRenderFailed, "build index", dir.source, err)
	}
	path := filepath.Join(dir.output, e.opts.IndexName)
	if err := util.WriteFile(e.fs, path, page, 0o644); err != nil {
		return newError(CodeIO, "write index", path, err)
	}
	e.logger.Info("rebuilt index", "dir", dir.rel)
	return nil
}

// IndexEntries lists dir's children, minus links, in child order with hrefs
// relative to the directory's output location. Every path segment of an
// href is percent-escaped.
func IndexEntries(dir *Dir, indexName string) []IndexEntry {
	if indexName == "" {
		indexName = DefaultIndexName
	}
	entries := make([]IndexEntry, 0, len(dir.children))
	for _, child := range dir.children {
		entry := IndexEntry{Name: child.Name(), Kind: child.Kind(), SourcePath: child.SourcePath()}
		switch n := child.(type) {
		case *Dir:
			entry.Href = url.PathEscape(n.name) + "/" + url.PathEscape(indexName)
		case *Document:
			entry.Href = url.PathEscape(filepath.Base(n.output))
		case *PlainFile:
			rel, err := filepath.Rel(dir.output, n.source)
			if err != nil {
				rel = n.source
			}
			entry.Href = escapePath(filepath.ToSlash(rel))
		default:
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}
