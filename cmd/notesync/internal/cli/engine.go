package cli

import (
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/incremental"
	"github.com/albertocavalcante/notesync/cmd/notesync/internal/registry"
	"github.com/albertocavalcante/notesync/internal/log"
	"github.com/albertocavalcante/notesync/pkg/config"
	"github.com/albertocavalcante/notesync/pkg/ignore"
)

// engineOptions are the per-command knobs layered over the config.
type engineOptions struct {
	full  bool
	jobs  int
	store incremental.Store
	// planOnly skips renderer construction; Plan never renders.
	planOnly bool
}

// newEngine builds a sync engine on the host filesystem. Paths in cfg are
// absolute after Resolve, so the filesystem is rooted at "/".
func newEngine(cfg *config.Config, opts engineOptions) (*incremental.Engine, *ignore.Matcher, error) {
	matcher, err := ignore.New(cfg.Sync.Ignore...)
	if err != nil {
		return nil, nil, err
	}

	var renderer incremental.Renderer
	if !opts.planOnly {
		if renderer, err = registry.LoadRenderer(cfg); err != nil {
			return nil, nil, err
		}
	}

	indexBuilder, err := registry.LoadIndexBuilder(cfg)
	if err != nil {
		return nil, nil, err
	}

	jobs := opts.jobs
	if jobs <= 0 {
		jobs = cfg.Sync.Jobs
	}

	engine, err := incremental.New(osfs.New("/"), incremental.Options{
		Source:       cfg.Sync.Source,
		Output:       cfg.Sync.Output,
		Extensions:   cfg.Sync.Extensions,
		Ignore:       matcher,
		Store:        opts.store,
		Renderer:     renderer,
		IndexBuilder: indexBuilder,
		IndexName:    cfg.Sync.IndexName,
		Full:         opts.full || !cfg.IsIncremental(),
		Jobs:         jobs,
		Logger:       log.Component("sync"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sync engine: %w", err)
	}
	return engine, matcher, nil
}
