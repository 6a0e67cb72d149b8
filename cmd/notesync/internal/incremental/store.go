package incremental

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// StateFileName is the reserved name of the record kept in every output
// directory. Entries with this name are never part of the source tree.
const StateFileName = ".notesync-state.json"

// Store persists one Record per output directory.
type Store interface {
	// Load returns the record for outputDir, or nil when none exists.
	Load(outputDir string) (*Record, error)
	Save(outputDir string, r *Record) error
}

// FileStore keeps records as JSON files on a billy filesystem.
type FileStore struct {
	fs billy.Filesystem
}

// NewFileStore creates a store writing to fs.
func NewFileStore(fs billy.Filesystem) *FileStore {
	return &FileStore{fs: fs}
}

var _ RecordStater = &FileStore{}

// Path returns the record location for outputDir.
func (s *FileStore) Path(outputDir string) string {
	return filepath.Join(outputDir, StateFileName)
}

// Stat returns the file info of the record for outputDir.
func (s *FileStore) Stat(outputDir string) (os.FileInfo, error) {
	return s.fs.Stat(s.Path(outputDir))
}

func (s *FileStore) Load(outputDir string) (*Record, error) {
	path := s.Path(outputDir)
	data, err := util.ReadFile(s.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, newError(CodeIO, "read state record", path, err)
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, newError(CodeSerialization, "parse state record", path, err)
	}
	if r.Version > RecordVersion {
		return nil, newError(CodeSerialization, "parse state record", path,
			fmt.Errorf("version %d is newer than supported version %d", r.Version, RecordVersion))
	}
	if r.Documents == nil {
		r.Documents = make(map[string]Hash)
	}
	return &r, nil
}

// Save writes r to a temporary file and renames it over the previous record.
func (s *FileStore) Save(outputDir string, r *Record) error {
	if r == nil {
		return newError(CodeInvalidInput, "save state record", outputDir, errors.New("nil record"))
	}
	if err := s.fs.MkdirAll(outputDir, 0o755); err != nil {
		return newError(CodeIO, "create output directory", outputDir, err)
	}

	r.Version = RecordVersion
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return newError(CodeSerialization, "encode state record", outputDir, err)
	}

	path := s.Path(outputDir)
	tmpPath := path + ".tmp"
	if err := util.WriteFile(s.fs, tmpPath, data, 0o644); err != nil {
		return newError(CodeIO, "write state record", tmpPath, err)
	}
	if err := s.fs.Rename(tmpPath, path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return newError(CodeIO, "rename state record", path, err)
	}
	return nil
}
