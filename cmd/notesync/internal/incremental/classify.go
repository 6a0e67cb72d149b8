package incremental

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// RenderedExt replaces a document's source extension in its output path.
const RenderedExt = ".html"

// DefaultExtensions are the renderable document extensions used when none
// are configured.
var DefaultExtensions = []string{".md"}

// Classifier labels filesystem entries and computes their output paths.
type Classifier struct {
	fs         billy.Filesystem
	source     string
	output     string
	extensions map[string]bool
}

// NewClassifier creates a classifier for entries below source, mirrored
// below output. Extensions may be given with or without a leading dot.
func NewClassifier(fs billy.Filesystem, source, output string, extensions []string) *Classifier {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return &Classifier{
		fs:         fs,
		source:     filepath.Clean(source),
		output:     filepath.Clean(output),
		extensions: set,
	}
}

// Renderable reports whether name has a renderable extension.
func (c *Classifier) Renderable(name string) bool {
	return c.extensions[strings.ToLower(filepath.Ext(name))]
}

// Classify inspects path without following symlinks. Documents are read and
// hashed here, once.
func (c *Classifier) Classify(path string) (Node, error) {
	path = filepath.Clean(path)
	rel, err := c.rel(path)
	if err != nil {
		return nil, err
	}

	info, err := c.fs.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newError(CodeNotFound, "classify", path, err)
		}
		return nil, newError(CodeIO, "classify", path, err)
	}

	b := base{rel: rel, source: path, name: filepath.Base(path)}
	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return &Link{base: b}, nil
	case mode.IsDir():
		return &Dir{base: b, output: c.outputPath(rel)}, nil
	case mode.IsRegular():
		if !c.Renderable(path) {
			return &PlainFile{base: b}, nil
		}
		content, err := c.hash(path)
		if err != nil {
			return nil, err
		}
		out := c.outputPath(rel)
		out = strings.TrimSuffix(out, filepath.Ext(out)) + RenderedExt
		return &Document{base: b, output: out, content: content}, nil
	default:
		return nil, newError(CodeUnclassifiable, "classify", path, fmt.Errorf("unsupported file mode %s", mode))
	}
}

func (c *Classifier) rel(path string) (string, error) {
	rel, err := filepath.Rel(c.source, path)
	if err != nil {
		return "", newError(CodeInvalidInput, "relativize", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", newError(CodeInvalidInput, "relativize", path, fmt.Errorf("not below %s", c.source))
	}
	return filepath.ToSlash(rel), nil
}

func (c *Classifier) outputPath(rel string) string {
	if rel == "." {
		return c.output
	}
	return filepath.Join(c.output, filepath.FromSlash(rel))
}

func (c *Classifier) hash(path string) (Hash, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return 0, newError(CodeIO, "open", path, err)
	}
	defer func() { _ = f.Close() }()

	h, err := HashReader(f)
	if err != nil {
		return 0, newError(CodeIO, "read", path, err)
	}
	return h, nil
}
