package incremental

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-git/go-billy/v5"
)

// Matcher decides whether an entry is left out of the tree. It receives the
// slash-separated path relative to the source root.
type Matcher interface {
	Match(relPath string) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(relPath string) bool

func (f MatcherFunc) Match(relPath string) bool { return f(relPath) }

// TreeConfig configures BuildTree.
type TreeConfig struct {
	Source     string
	Output     string
	Extensions []string
	Ignore     Matcher // nil ignores nothing
	Logger     *slog.Logger
}

// Tree is the classified source hierarchy of one run.
type Tree struct {
	Root *Dir
	// Dirs lists every directory in breadth-first order, root first.
	Dirs []*Dir
}

// DocumentCount returns the number of documents in the tree.
func (t *Tree) DocumentCount() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, d := range t.Dirs {
		n += len(d.Documents())
	}
	return n
}

// BuildTree classifies the source root and expands it breadth-first.
// Entries that cannot be listed or classified are left out, and so are
// documents whose rendered output another document of the same directory
// already claims (a.md and a.markdown); the first by name wins. Hashes
// are computed once the whole tree is known.
func BuildTree(ctx context.Context, fs billy.Filesystem, cfg TreeConfig) (*Tree, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := NewClassifier(fs, cfg.Source, cfg.Output, cfg.Extensions)

	rootNode, err := c.Classify(c.source)
	if err != nil {
		return nil, err
	}
	root, ok := rootNode.(*Dir)
	if !ok {
		return nil, newError(CodeInvalidInput, "build tree", c.source, errors.New("source root is not a directory"))
	}

	tree := &Tree{Root: root}
	queue := []*Dir{root}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := queue[0]
		queue = queue[1:]
		tree.Dirs = append(tree.Dirs, dir)

		infos, err := fs.ReadDir(dir.source)
		if err != nil {
			logger.Debug("skipping unreadable directory", "path", dir.source, "error", err)
			continue
		}
		slices.SortFunc(infos, func(a, b os.FileInfo) int { return cmp.Compare(a.Name(), b.Name()) })

		claimed := make(map[string]string) // rendered output -> source name
		for _, info := range infos {
			path := filepath.Join(dir.source, info.Name())
			if skip(c, cfg.Ignore, path, info.Name()) {
				continue
			}
			node, err := c.Classify(path)
			if err != nil {
				logger.Debug("skipping entry", "path", path, "error", err)
				continue
			}
			if doc, ok := node.(*Document); ok {
				if first, dup := claimed[doc.output]; dup {
					logger.Warn("skipping document with conflicting output",
						"path", path, "output", doc.output, "kept", first)
					continue
				}
				claimed[doc.output] = info.Name()
			}
			dir.children = append(dir.children, node)
			if sub, ok := node.(*Dir); ok {
				queue = append(queue, sub)
			}
		}
	}

	// Reverse breadth-first order visits every child before its parent.
	for i := len(tree.Dirs) - 1; i >= 0; i-- {
		d := tree.Dirs[i]
		d.structural = StructuralHash(d)
		d.merkle = MerkleHash(d)
	}
	return tree, nil
}

func skip(c *Classifier, ignore Matcher, path, name string) bool {
	if name == StateFileName || path == c.output {
		return true
	}
	if ignore == nil {
		return false
	}
	rel, err := c.rel(path)
	if err != nil {
		return true
	}
	return ignore.Match(rel)
}
