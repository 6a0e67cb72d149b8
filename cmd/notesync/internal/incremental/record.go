package incremental

// RecordVersion is the current version of the state record format.
const RecordVersion = 1

// Record is the persisted state of one directory after a successful run.
type Record struct {
	Version    int  `json:"version"`
	Merkle     Hash `json:"merkle"`
	Structural Hash `json:"structural"`
	// Documents maps each direct child document's relative path to its
	// content hash.
	Documents map[string]Hash `json:"documents"`
}

// NewRecord captures the current hashes of d.
func NewRecord(d *Dir) *Record {
	r := &Record{
		Version:    RecordVersion,
		Merkle:     d.merkle,
		Structural: d.structural,
		Documents:  make(map[string]Hash),
	}
	for _, doc := range d.Documents() {
		r.Documents[doc.rel] = doc.content
	}
	return r
}

// MerkleMatches reports whether the recorded merkle hash equals h. A nil
// record never matches.
func (r *Record) MerkleMatches(h Hash) bool {
	return r != nil && r.Merkle == h
}

// StructuralMatches reports whether the recorded structural hash equals h.
func (r *Record) StructuralMatches(h Hash) bool {
	return r != nil && r.Structural == h
}

// ContentMatches reports whether the document at relPath was recorded with
// content hash h.
func (r *Record) ContentMatches(relPath string, h Hash) bool {
	if r == nil || r.Documents == nil {
		return false
	}
	got, ok := r.Documents[relPath]
	return ok && got == h
}
