package incremental

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHashBytes(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "empty",
			input: []byte{},
			want:  "ef46db3751d8e999", // xxHash64 of empty input
		},
		{
			name:  "hello",
			input: []byte("hello"),
			want:  "26c7827d889f6da3", // xxHash64 of "hello"
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HashBytes(tt.input).String()
			if got != tt.want {
				t.Errorf("HashBytes(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHashReader(t *testing.T) {
	content := "file content for hashing"
	got, err := HashReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("HashReader() error = %v", err)
	}
	if want := HashBytes([]byte(content)); got != want {
		t.Errorf("HashReader() = %s, want %s", got, want)
	}
}

func TestParseHash(t *testing.T) {
	h := HashBytes([]byte("hello"))
	got, err := ParseHash(h.String())
	if err != nil {
		t.Fatalf("ParseHash() error = %v", err)
	}
	if got != h {
		t.Errorf("ParseHash(%q) = %s, want %s", h.String(), got, h)
	}

	for _, bad := range []string{"", "abc", "zzzzzzzzzzzzzzzz", "26c7827d889f6da3ff"} {
		if _, err := ParseHash(bad); err == nil {
			t.Errorf("ParseHash(%q) expected error", bad)
		}
	}
}

func TestHashJSON(t *testing.T) {
	in := map[string]Hash{"a.md": 0x26c7827d889f6da3}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a.md":"26c7827d889f6da3"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var out map[string]Hash
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out["a.md"] != in["a.md"] {
		t.Errorf("round trip = %s, want %s", out["a.md"], in["a.md"])
	}
}

func TestStructuralHashTracksChildSet(t *testing.T) {
	fs := newFS(t, map[string]string{"a.md": "X", "b.txt": "data"})
	before := buildTree(t, fs).Root.StructuralHash()

	writeFiles(t, fs, map[string]string{"a.md": "changed"})
	if got := buildTree(t, fs).Root.StructuralHash(); got != before {
		t.Errorf("content edit changed structural hash: %s -> %s", before, got)
	}

	writeFiles(t, fs, map[string]string{"c.md": "new"})
	if got := buildTree(t, fs).Root.StructuralHash(); got == before {
		t.Error("added child did not change structural hash")
	}
}

func TestStructuralHashTracksChildKind(t *testing.T) {
	fs := newFS(t, map[string]string{"a.md": "X", "notes": "plain"})
	before := buildTree(t, fs).Root.StructuralHash()

	if err := fs.Remove("/src/notes"); err != nil {
		t.Fatal(err)
	}
	writeFiles(t, fs, map[string]string{"notes/n.md": "N"})
	if got := buildTree(t, fs).Root.StructuralHash(); got == before {
		t.Error("file replaced by a directory of the same name kept the structural hash")
	}
}

func TestMerkleHashPropagation(t *testing.T) {
	fs := newFS(t, map[string]string{
		"a.md":           "A",
		"x/b.md":         "B",
		"x/y/c.md":       "C",
		"x/y/z/deep.md":  "D",
		"other/o.md":     "O",
		"x/sibling/s.md": "S",
	})
	before := buildTree(t, fs)
	beforeMerkle := map[string]Hash{}
	beforeStructural := map[string]Hash{}
	for _, d := range before.Dirs {
		beforeMerkle[d.RelPath()] = d.MerkleHash()
		beforeStructural[d.RelPath()] = d.StructuralHash()
	}

	writeFiles(t, fs, map[string]string{"x/y/z/deep.md": "edited"})
	after := buildTree(t, fs)

	changed := map[string]bool{".": true, "x": true, "x/y": true, "x/y/z": true}
	for _, d := range after.Dirs {
		rel := d.RelPath()
		if got := d.MerkleHash() != beforeMerkle[rel]; got != changed[rel] {
			t.Errorf("merkle of %q changed = %v, want %v", rel, got, changed[rel])
		}
		if d.StructuralHash() != beforeStructural[rel] {
			t.Errorf("structural hash of %q changed on a content edit", rel)
		}
	}
}

func TestMerkleHashIgnoresPlainFiles(t *testing.T) {
	fs := newFS(t, map[string]string{"a.md": "A", "img.png": "1"})
	before := buildTree(t, fs).Root.MerkleHash()

	writeFiles(t, fs, map[string]string{"img.png": "2"})
	if got := buildTree(t, fs).Root.MerkleHash(); got != before {
		t.Errorf("plain file edit changed merkle hash: %s -> %s", before, got)
	}
}
