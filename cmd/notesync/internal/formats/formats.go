// Package formats defines the document formats notesync knows about.
//
// The mapping between format names and file extensions is fixed: given a
// format name, you always get the same set of extensions. Components that
// classify documents by extension (detection, init, config defaults) use
// this package rather than defining their own tables.
package formats

import (
	"slices"
	"strings"

	"github.com/albertocavalcante/notesync/pkg/util"
)

// Markdown is the only format rendered without an external command.
const Markdown = "markdown"

// Extensions maps format names to their file extensions.
var Extensions = map[string][]string{
	Markdown:   {".md", ".markdown", ".mdown", ".mkd"},
	"org":      {".org"},
	"rst":      {".rst"},
	"asciidoc": {".adoc", ".asciidoc"},
}

// Builtin reports whether format can be rendered by the built-in renderer.
func Builtin(format string) bool {
	return format == Markdown
}

// ExtensionSet returns a set of all extensions for the given formats.
// If formats is empty, returns all known extensions.
func ExtensionSet(formats []string) map[string]bool {
	extensions := make(map[string]bool)
	if len(formats) == 0 {
		formats = util.SortedKeys(Extensions)
	}
	for _, f := range formats {
		for _, ext := range Extensions[f] {
			extensions[ext] = true
		}
	}
	return extensions
}

// ExtensionList returns the sorted extensions of the given formats.
func ExtensionList(formats []string) []string {
	return util.SortedKeys(ExtensionSet(formats))
}

// ForExtension returns the format owning ext (compared case-insensitively).
func ForExtension(ext string) (string, bool) {
	ext = strings.ToLower(ext)
	for _, name := range util.SortedKeys(Extensions) {
		if slices.Contains(Extensions[name], ext) {
			return name, true
		}
	}
	return "", false
}

// Names returns all known format names, sorted.
func Names() []string {
	return util.SortedKeys(Extensions)
}
