//go:build property
// +build property

package incremental

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestSyncProperties checks idempotence and edit locality over random trees.
func TestSyncProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	setup := func(paths []string) (*Engine, map[string]bool, error) {
		fs := memfs.New()
		docs := make(map[string]bool)
		for _, p := range paths {
			rel := p + ".md"
			docs[rel] = true
			if err := util.WriteFile(fs, srcRoot+"/"+rel, []byte(rel), 0o644); err != nil {
				return nil, nil, err
			}
		}
		if err := fs.MkdirAll(srcRoot, 0o755); err != nil {
			return nil, nil, err
		}
		e, err := New(fs, Options{
			Source:       srcRoot,
			Output:       outRoot,
			Renderer:     &fakeRenderer{},
			IndexBuilder: &fakeIndex{},
		})
		return e, docs, err
	}

	// Property: a second run over an unchanged tree does no work
	properties.Property("idempotent", prop.ForAll(
		func(paths []string) bool {
			e, docs, err := setup(paths)
			if err != nil {
				return false
			}
			first, err := e.Run(context.Background())
			if err != nil || len(first.Rendered) != len(docs) {
				return false
			}
			second, err := e.Run(context.Background())
			return err == nil && second.IsEmpty() && len(second.Visited) == 0
		},
		gen.SliceOfN(8, gen.RegexMatch(`^[a-z]{1,4}(/[a-z]{1,4}){0,2}$`)),
	))

	// Property: editing one document re-renders exactly that document
	properties.Property("edit locality", prop.ForAll(
		func(paths []string, pick int) bool {
			if len(paths) == 0 {
				return true
			}
			e, _, err := setup(paths)
			if err != nil {
				return false
			}
			if _, err := e.Run(context.Background()); err != nil {
				return false
			}

			target := paths[pick%len(paths)] + ".md"
			if err := util.WriteFile(e.fs, srcRoot+"/"+target, []byte("edited"), 0o644); err != nil {
				return false
			}
			report, err := e.Run(context.Background())
			if err != nil {
				return false
			}
			return len(report.Rendered) == 1 && report.Rendered[0] == target && len(report.Indexed) == 0
		},
		gen.SliceOfN(8, gen.RegexMatch(`^[a-z]{1,4}(/[a-z]{1,4}){0,2}$`)),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
