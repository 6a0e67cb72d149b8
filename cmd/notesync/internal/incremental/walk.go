package incremental

import (
	"iter"
	"log/slog"
)

// WorkItem is the work one visited directory needs.
type WorkItem struct {
	Dir *Dir
	// Record is the directory's previous state, nil when absent.
	Record *Record
	// Stale lists documents whose content hash differs from the record.
	Stale []*Document
	// RebuildIndex is set when the set of children changed.
	RebuildIndex bool
	// Descend lists the subdirectories whose merkle hash changed. They
	// are visited by later items.
	Descend []*Dir
}

type queued struct {
	dir    *Dir
	record *Record
}

// Walker yields work items breadth-first, visiting a directory only when
// its merkle hash differs from the recorded one. A Walker is consumed once.
type Walker struct {
	store   Store
	full    bool
	logger  *slog.Logger
	root    *Dir
	started bool
	queue   []queued
}

// NewWalker creates a walker over the tree rooted at root. With full set,
// recorded state is ignored and every directory is visited.
func NewWalker(root *Dir, store Store, full bool, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Walker{
		store:  store,
		full:   full,
		logger: logger,
		root:   root,
	}
}

// Next returns the next work item, or false once the walk is complete.
func (w *Walker) Next() (*WorkItem, bool) {
	if !w.started {
		w.started = true
		w.enqueue(w.root)
	}
	if len(w.queue) == 0 {
		return nil, false
	}
	q := w.queue[0]
	w.queue = w.queue[1:]

	item := &WorkItem{
		Dir:          q.dir,
		Record:       q.record,
		RebuildIndex: !q.record.StructuralMatches(q.dir.structural),
	}
	for _, doc := range q.dir.Documents() {
		if !q.record.ContentMatches(doc.rel, doc.content) {
			item.Stale = append(item.Stale, doc)
		}
	}
	for _, sub := range q.dir.Dirs() {
		if w.enqueue(sub) {
			item.Descend = append(item.Descend, sub)
		}
	}
	return item, true
}

// All returns the remaining work items as a sequence.
func (w *Walker) All() iter.Seq[*WorkItem] {
	return func(yield func(*WorkItem) bool) {
		for {
			item, ok := w.Next()
			if !ok || !yield(item) {
				return
			}
		}
	}
}

// enqueue queues d when its recorded merkle hash is stale.
func (w *Walker) enqueue(d *Dir) bool {
	r := w.load(d)
	if r.MerkleMatches(d.merkle) {
		w.logger.Debug("skipping unchanged directory", "dir", d.rel)
		return false
	}
	w.queue = append(w.queue, queued{dir: d, record: r})
	return true
}

func (w *Walker) load(d *Dir) *Record {
	if w.full || w.store == nil {
		return nil
	}
	r, err := w.store.Load(d.output)
	if err != nil {
		w.logger.Debug("ignoring unreadable state record", "dir", d.output, "error", err)
		return nil
	}
	return r
}
