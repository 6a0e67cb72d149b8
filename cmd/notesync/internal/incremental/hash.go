package incremental

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// Hash is an xxHash64 digest. It is serialized as 16 lowercase hex digits.
type Hash uint64

// String returns the big-endian hex form of h.
func (h Hash) String() string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(h))
	return hex.EncodeToString(buf[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash parses the hex form produced by Hash.String.
func ParseHash(s string) (Hash, error) {
	if len(s) != 16 {
		return 0, fmt.Errorf("invalid hash %q: want 16 hex digits", s)
	}
	var buf [8]byte
	if _, err := hex.Decode(buf[:], []byte(s)); err != nil {
		return 0, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return Hash(binary.BigEndian.Uint64(buf[:])), nil
}

// HashBytes computes xxHash64 of data.
func HashBytes(data []byte) Hash {
	return Hash(xxhash.Sum64(data))
}

// HashReader computes xxHash64 of everything read from r.
func HashReader(r io.Reader) (Hash, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return 0, fmt.Errorf("failed to hash content: %w", err)
	}
	return Hash(h.Sum64()), nil
}

// StructuralHash hashes the ordered relative paths and kinds of d's direct
// children. Content edits leave it alone; adding, removing or renaming a
// child changes it, and so does a child that keeps its name but changes
// kind, since the index links such a child differently.
func StructuralHash(d *Dir) Hash {
	h := xxhash.New()
	for _, child := range d.children {
		_, _ = h.WriteString(child.RelPath())
		_, _ = h.Write([]byte{0, byte(child.Kind())})
	}
	return Hash(h.Sum64())
}

// MerkleHash folds d's structural hash with the merkle hashes of its child
// directories and the content hashes of its child documents. Child
// directories must already carry their merkle hash.
func MerkleHash(d *Dir) Hash {
	h := xxhash.New()
	var buf [8]byte
	write := func(v Hash) {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}

	write(d.structural)
	for _, child := range d.children {
		switch n := child.(type) {
		case *Dir:
			write(n.merkle)
		case *Document:
			write(n.content)
		}
	}
	return Hash(h.Sum64())
}
