// Package detect reports which document formats a directory contains.
//
// Detection walks the directory tree, skipping anything the ignore matcher
// excludes, and maps each file extension to a format using
// formats.Extensions. The result is sorted, so the same directory contents
// always produce the same answer.
package detect

import (
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/formats"
	"github.com/albertocavalcante/notesync/pkg/ignore"
	"github.com/albertocavalcante/notesync/pkg/util"
)

// Result summarizes a detection walk.
type Result struct {
	// Formats lists detected format names, sorted.
	Formats []string
	// Counts maps each detected format to its number of documents.
	Counts map[string]int
}

// Formats detects the document formats used below root. A nil matcher
// applies ignore.DefaultPatterns.
func Formats(root string, m *ignore.Matcher) (*Result, error) {
	if m == nil {
		var err error
		if m, err = ignore.New(); err != nil {
			return nil, err
		}
	}

	res := &Result{Counts: make(map[string]int)}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if m.Match(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if format, ok := formats.ForExtension(filepath.Ext(path)); ok {
			res.Counts[format]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Formats = util.SortedKeys(res.Counts)
	return res, nil
}

// HasFormat checks if a specific format is detected in the directory.
func HasFormat(root, format string) (bool, error) {
	res, err := Formats(root, nil)
	if err != nil {
		return false, err
	}
	return slices.Contains(res.Formats, format), nil
}
