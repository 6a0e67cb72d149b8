package render

import "github.com/alecthomas/chroma/v2/styles"

// DefaultCodeTheme is the code block theme used when none is configured.
const DefaultCodeTheme = "github"

// CodeThemes returns the names of the syntax highlighting themes, sorted.
func CodeThemes() []string {
	return styles.Names()
}

// IsCodeTheme reports whether name is a known syntax highlighting theme.
func IsCodeTheme(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}
