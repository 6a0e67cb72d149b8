package incremental

import "time"

// Report describes the work done (or planned) by one run.
type Report struct {
	// Visited lists the relative paths of visited directories in visit order.
	Visited []string `json:"visited"`
	// Rendered lists the relative paths of rendered documents.
	Rendered []string `json:"rendered"`
	// Indexed lists the directories whose index page was rebuilt.
	Indexed   []string      `json:"indexed"`
	Dirs      int           `json:"dirs"`
	Documents int           `json:"documents"`
	Full      bool          `json:"full"`
	Duration  time.Duration `json:"duration_ns"`
}

func newReport(t *Tree, full bool) *Report {
	return &Report{
		Visited:   []string{},
		Rendered:  []string{},
		Indexed:   []string{},
		Dirs:      len(t.Dirs),
		Documents: t.DocumentCount(),
		Full:      full,
	}
}

// IsEmpty returns true if nothing was rendered or indexed.
func (r *Report) IsEmpty() bool {
	if r == nil {
		return true
	}
	return len(r.Rendered) == 0 && len(r.Indexed) == 0
}

// TotalChanges returns the number of rendered documents plus rebuilt indexes.
func (r *Report) TotalChanges() int {
	if r == nil {
		return 0
	}
	return len(r.Rendered) + len(r.Indexed)
}

// SkippedDirs returns how many directories were left alone.
func (r *Report) SkippedDirs() int {
	if r == nil {
		return 0
	}
	return r.Dirs - len(r.Visited)
}

func (r *Report) add(item *WorkItem) {
	r.Visited = append(r.Visited, item.Dir.rel)
	for _, doc := range item.Stale {
		r.Rendered = append(r.Rendered, doc.rel)
	}
	if item.RebuildIndex {
		r.Indexed = append(r.Indexed, item.Dir.rel)
	}
}
