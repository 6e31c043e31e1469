// Package cas keeps content-addressed snapshots of lexicon files. Each
// snapshot is stored xz-compressed under the SHA-256 of its uncompressed
// bytes, so rewriting a file in place never loses the original and storing
// the same content twice costs nothing.
package cas

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/sfmlex/core/errors"
	"github.com/FocuswithJustin/sfmlex/internal/fileutil"
)

// ErrInvalidHash is returned when a hash string is not 64 lowercase hex digits.
var ErrInvalidHash = errors.NewValidation("hash", "want 64 lowercase hex characters")

// hashPattern matches a SHA-256 or BLAKE3-256 hex string.
var hashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Store is a snapshot directory.
type Store struct {
	root string
}

// NewStore opens the store at root, creating it if needed.
func NewStore(root string) (*Store, error) {
	blobDir := filepath.Join(root, "blobs", "sha256")
	if err := os.MkdirAll(blobDir, 0755); err != nil {
		return nil, errors.NewIO("create", blobDir, err)
	}
	return &Store{root: root}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Put stores data and returns its SHA-256. Storing existing content is a
// no-op.
func (s *Store) Put(data []byte) (string, error) {
	hash := Hash(data)
	blobPath := s.pathForHash(hash)
	if _, err := os.Stat(blobPath); err == nil {
		return hash, nil
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return "", errors.Wrap(err, "create xz writer")
	}
	if _, err := w.Write(data); err != nil {
		return "", errors.Wrap(err, "compress snapshot")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "compress snapshot")
	}

	if err := fileutil.WriteFileAtomic(blobPath, buf.Bytes(), 0644); err != nil {
		return "", errors.NewIO("write", blobPath, err)
	}
	return hash, nil
}

// Get returns the uncompressed bytes stored under hash.
func (s *Store) Get(hash string) ([]byte, error) {
	if !isValidHash(hash) {
		return nil, ErrInvalidHash
	}

	blobPath := s.pathForHash(hash)
	f, err := os.Open(blobPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("snapshot", hash)
		}
		return nil, errors.NewIO("open", blobPath, err)
	}
	defer f.Close()

	r, err := xz.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot %s", hash)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot %s", hash)
	}
	if Hash(data) != hash {
		return nil, errors.NewValidation("snapshot", "content does not match hash "+hash)
	}
	return data, nil
}

// Exists reports whether a snapshot is stored under hash.
func (s *Store) Exists(hash string) bool {
	if !isValidHash(hash) {
		return false
	}
	_, err := os.Stat(s.pathForHash(hash))
	return err == nil
}

// Blobs are stored at: <root>/blobs/sha256/<first2>/<hash>.xz
func (s *Store) pathForHash(hash string) string {
	return filepath.Join(s.root, "blobs", "sha256", hash[:2], hash+".xz")
}

func isValidHash(hash string) bool {
	return hashPattern.MatchString(hash)
}

// Hash computes the SHA-256 of data without storing it.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
