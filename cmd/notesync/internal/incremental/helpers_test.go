package incremental

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

const (
	srcRoot = "/src"
	outRoot = "/out"
)

func newFS(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	if err := fs.MkdirAll(srcRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFiles(t, fs, files)
	return fs
}

func writeFiles(t *testing.T, fs billy.Filesystem, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(srcRoot, rel)
		if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := util.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readFile(t *testing.T, fs billy.Filesystem, path string) string {
	t.Helper()
	data, err := util.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	return string(data)
}

func buildTree(t *testing.T, fs billy.Filesystem) *Tree {
	t.Helper()
	tree, err := BuildTree(context.Background(), fs, TreeConfig{Source: srcRoot, Output: outRoot})
	if err != nil {
		t.Fatalf("BuildTree() error = %v", err)
	}
	return tree
}

// findDir returns the directory with the given relative path.
func findDir(t *testing.T, tree *Tree, rel string) *Dir {
	t.Helper()
	for _, d := range tree.Dirs {
		if d.RelPath() == rel {
			return d
		}
	}
	t.Fatalf("directory %q not in tree", rel)
	return nil
}

// fakeRenderer wraps each document in a <p> and counts calls.
type fakeRenderer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *fakeRenderer) Render(_ context.Context, source []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("<p>" + string(source) + "</p>"), nil
}

// fakeIndex lists entry hrefs one per line and remembers the directories
// it was asked to index.
type fakeIndex struct {
	dirs []string
	err  error
}

func (b *fakeIndex) BuildIndex(_ context.Context, dir *Dir, entries []IndexEntry) ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.dirs = append(b.dirs, dir.RelPath())
	var out string
	for _, e := range entries {
		out += fmt.Sprintf("%s %s\n", e.Kind, e.Href)
	}
	return []byte(out), nil
}

func newEngine(t *testing.T, fs billy.Filesystem, r Renderer, b IndexBuilder, mutate ...func(*Options)) *Engine {
	t.Helper()
	opts := Options{
		Source:       srcRoot,
		Output:       outRoot,
		Renderer:     r,
		IndexBuilder: b,
	}
	for _, m := range mutate {
		m(&opts)
	}
	e, err := New(fs, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func run(t *testing.T, e *Engine) *Report {
	t.Helper()
	report, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return report
}
