package incremental

import (
	"errors"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

var _ Store = &CachedStore{}

// RecordStater is implemented by stores that can look at a record without
// reading it. CachedStore uses it to notice records removed or rewritten
// behind its back.
type RecordStater interface {
	Stat(outputDir string) (os.FileInfo, error)
}

// CachedStore is a least-recently-used cache in front of another Store.
// Writes pass through to the underlying store. Missing records are not
// cached. When the underlying store implements RecordStater, every hit is
// checked against it, and a record that is gone or changed size is
// evicted and loaded again.
type CachedStore struct {
	c *lru.Cache[string, cachedRecord] // output dir -> record
	s Store
}

type cachedRecord struct {
	r    *Record
	size int64 // -1 when the store cannot stat
}

// NewCachedStore wraps s, caching up to size records.
func NewCachedStore(s Store, size int) (*CachedStore, error) {
	c, err := lru.New[string, cachedRecord](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{c: c, s: s}, nil
}

func (s *CachedStore) Load(outputDir string) (*Record, error) {
	if e, ok := s.c.Get(outputDir); ok {
		if s.valid(outputDir, e) {
			return e.r, nil
		}
		s.c.Remove(outputDir)
	}
	r, err := s.s.Load(outputDir)
	if err != nil || r == nil {
		return r, err
	}
	s.add(outputDir, r)
	return r, nil
}

func (s *CachedStore) Save(outputDir string, r *Record) error {
	if err := s.s.Save(outputDir, r); err != nil {
		s.c.Remove(outputDir)
		return err
	}
	s.add(outputDir, r)
	return nil
}

// Purge drops every cached record.
func (s *CachedStore) Purge() {
	s.c.Purge()
}

// Len returns the number of cached records.
func (s *CachedStore) Len() int {
	return s.c.Len()
}

func (s *CachedStore) add(outputDir string, r *Record) {
	stater, ok := s.s.(RecordStater)
	if !ok {
		s.c.Add(outputDir, cachedRecord{r: r, size: -1})
		return
	}
	info, err := stater.Stat(outputDir)
	if err != nil {
		s.c.Remove(outputDir)
		return
	}
	s.c.Add(outputDir, cachedRecord{r: r, size: info.Size()})
}

func (s *CachedStore) valid(outputDir string, e cachedRecord) bool {
	stater, ok := s.s.(RecordStater)
	if !ok || e.size < 0 {
		return true
	}
	info, err := stater.Stat(outputDir)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	// Other stat failures surface through the reload.
	return err == nil && info.Size() == e.size
}
