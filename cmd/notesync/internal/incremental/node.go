// Package incremental mirrors a source tree of documents into a rendered
// output tree, re-rendering only what changed since the previous run.
//
// Every run builds a fresh in-memory tree of the source directory, hashes it
// bottom-up, and compares each directory's merkle hash with the record
// persisted next to that directory's output. Subtrees whose hash still
// matches are skipped without rendering or indexing.
package incremental

// Kind identifies the variant of a Node.
type Kind int

const (
	KindDir Kind = iota
	KindDocument
	KindPlainFile
	KindLink
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindDocument:
		return "document"
	case KindPlainFile:
		return "file"
	case KindLink:
		return "link"
	default:
		return "unknown"
	}
}

// Node is one classified entry of the source tree. The set of
// implementations is closed: *Dir, *Document, *PlainFile and *Link.
type Node interface {
	Kind() Kind
	// RelPath is the slash-separated path relative to the source root.
	RelPath() string
	SourcePath() string
	Name() string
	isNode()
}

type base struct {
	rel    string
	source string
	name   string
}

func (b *base) RelPath() string    { return b.rel }
func (b *base) SourcePath() string { return b.source }
func (b *base) Name() string       { return b.name }
func (b *base) isNode()            {}

// Dir is a source directory together with its classified children.
type Dir struct {
	base
	output     string
	children   []Node
	structural Hash
	merkle     Hash
}

func (d *Dir) Kind() Kind { return KindDir }

// OutputPath is where the directory is mirrored in the output tree.
func (d *Dir) OutputPath() string { return d.output }

// Children returns the directory's entries ordered by relative path.
func (d *Dir) Children() []Node { return d.children }

func (d *Dir) StructuralHash() Hash { return d.structural }
func (d *Dir) MerkleHash() Hash     { return d.merkle }

// Dirs returns the child directories in child order.
func (d *Dir) Dirs() []*Dir {
	var dirs []*Dir
	for _, c := range d.children {
		if sub, ok := c.(*Dir); ok {
			dirs = append(dirs, sub)
		}
	}
	return dirs
}

// Documents returns the child documents in child order.
func (d *Dir) Documents() []*Document {
	var docs []*Document
	for _, c := range d.children {
		if doc, ok := c.(*Document); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// Document is a renderable source file.
type Document struct {
	base
	output  string
	content Hash
}

func (d *Document) Kind() Kind { return KindDocument }

// OutputPath is the rendered file's location, with the source extension
// replaced by the rendered one.
func (d *Document) OutputPath() string { return d.output }

func (d *Document) ContentHash() Hash { return d.content }

// PlainFile is a regular file that is neither rendered nor tracked.
type PlainFile struct {
	base
}

func (f *PlainFile) Kind() Kind { return KindPlainFile }

// Link is a symbolic link. It is never followed.
type Link struct {
	base
}

func (l *Link) Kind() Kind { return KindLink }
