// Package ignore matches source paths against glob patterns.
//
// Patterns use doublestar syntax and are matched against slash-separated
// paths relative to the source root. A pattern without a slash matches the
// entry's name at any depth, so ".git" and "**/.git" are equivalent. A
// leading slash anchors a pattern at the source root.
package ignore

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns are ignored unless the matcher is built without defaults.
var DefaultPatterns = []string{
	"*.tar.gz",
	".directory",
	".dropbox",
	".dropbox.cache",
	".git",
	".mypy_cache",
	"_rendered",
	"target",
}

// Matcher holds a compiled set of patterns.
type Matcher struct {
	patterns []string
}

// New builds a matcher from DefaultPatterns plus extra.
func New(extra ...string) (*Matcher, error) {
	return Compile(append(append([]string{}, DefaultPatterns...), extra...))
}

// Compile builds a matcher from patterns alone. Empty patterns are skipped.
func Compile(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		norm := Normalize(p)
		if norm == "" {
			continue
		}
		if !doublestar.ValidatePattern(norm) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
		m.patterns = append(m.patterns, norm)
	}
	return m, nil
}

// Normalize rewrites p into the form it is matched in.
func Normalize(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "/") {
		return strings.TrimPrefix(p, "/")
	}
	if !strings.Contains(p, "/") {
		return "**/" + p
	}
	return p
}

// Match reports whether relPath matches any pattern.
func (m *Matcher) Match(relPath string) bool {
	if m == nil {
		return false
	}
	for _, p := range m.patterns {
		// Patterns were validated in Compile, so Match cannot fail.
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
	}
	return false
}

// MatchPath reports whether relPath or any of its parent directories
// matches. Use it for paths found without walking down from the root.
func (m *Matcher) MatchPath(relPath string) bool {
	if m == nil {
		return false
	}
	for p := relPath; p != "." && p != "" && p != "/"; p = path.Dir(p) {
		if m.Match(p) {
			return true
		}
	}
	return false
}

// Patterns returns the normalized patterns.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.patterns...)
}
