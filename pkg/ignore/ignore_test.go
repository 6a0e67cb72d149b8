package ignore

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{".git", "**/.git"},
		{"*.tar.gz", "**/*.tar.gz"},
		{"drafts/", "**/drafts"},
		{"/drafts", "drafts"},
		{"notes/private/**", "notes/private/**"},
		{"  ", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDefaultMatcher(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{".git", true},
		{"sub/.git", true},
		{"backup.tar.gz", true},
		{"a/b/backup.tar.gz", true},
		{"_rendered", true},
		{"rust/target", true},
		{"notes.md", false},
		{"targets", false},
		{"git/file.md", false},
	}

	for _, tt := range tests {
		if got := m.Match(tt.path); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestCompileAnchored(t *testing.T) {
	m, err := Compile([]string{"/drafts", "journal/*.md"})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if !m.Match("drafts") {
		t.Error("anchored pattern should match at the root")
	}
	if m.Match("sub/drafts") {
		t.Error("anchored pattern should not match below the root")
	}
	if !m.Match("journal/today.md") || m.Match("journal/2024/today.md") {
		t.Error("single star should not cross directories")
	}
	if m.Match(".git") {
		t.Error("Compile() should not include default patterns")
	}
}

func TestCompileInvalid(t *testing.T) {
	if _, err := Compile([]string{"[unclosed"}); err == nil {
		t.Error("Compile() expected error for invalid pattern")
	}
}

func TestNilMatcher(t *testing.T) {
	var m *Matcher
	if m.Match(".git") {
		t.Error("nil matcher should match nothing")
	}
	if m.Patterns() != nil {
		t.Error("nil matcher should have no patterns")
	}
	if m.MatchPath(".git/HEAD") {
		t.Error("nil matcher should match no path")
	}
}

func TestMatchPath(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		path string
		want bool
	}{
		{".git/HEAD", true},
		{"notes/.git/objects/ab", true},
		{"notes/target", true},
		{"notes/today.md", false},
		{".", false},
	}
	for _, tt := range tests {
		if got := m.MatchPath(tt.path); got != tt.want {
			t.Errorf("MatchPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
