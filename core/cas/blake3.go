package cas

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/sfmlex/core/errors"
	"github.com/FocuswithJustin/sfmlex/internal/fileutil"
)

// Snapshot identifies one stored file.
type Snapshot struct {
	SHA256 string    `json:"sha256"`
	BLAKE3 string    `json:"blake3"`
	Source string    `json:"source,omitempty"`
	Size   int64     `json:"size"`
	Taken  time.Time `json:"taken"`
}

// blake3Pointer is the structure stored in BLAKE3 pointer files.
type blake3Pointer struct {
	SHA256 string    `json:"sha256"`
	Source string    `json:"source,omitempty"`
	Size   int64     `json:"size"`
	Taken  time.Time `json:"taken"`
}

// SnapshotFile stores the current content of path and records a BLAKE3
// pointer to it.
func (s *Store) SnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return s.PutWithBlake3(data, path)
}

// PutWithBlake3 stores data and writes a pointer from its BLAKE3 digest to
// its SHA-256.
func (s *Store) PutWithBlake3(data []byte, source string) (*Snapshot, error) {
	sha, err := s.Put(data)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		SHA256: sha,
		BLAKE3: Blake3Hash(data),
		Source: source,
		Size:   int64(len(data)),
		Taken:  time.Now().UTC(),
	}
	if err := s.writePointer(snap); err != nil {
		return nil, errors.Wrap(err, "write BLAKE3 pointer")
	}
	return snap, nil
}

// Pointer files are stored at: <root>/blobs/blake3/<first2>/<blake3>.json
func (s *Store) pointerPath(b3 string) string {
	return filepath.Join(s.root, "blobs", "blake3", b3[:2], b3+".json")
}

func (s *Store) writePointer(snap *Snapshot) error {
	path := s.pointerPath(snap.BLAKE3)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := json.Marshal(blake3Pointer{
		SHA256: snap.SHA256,
		Source: snap.Source,
		Size:   snap.Size,
		Taken:  snap.Taken,
	})
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0644)
}

// LookupBlake3 returns the snapshot recorded for a BLAKE3 digest.
func (s *Store) LookupBlake3(b3 string) (*Snapshot, error) {
	if !isValidHash(b3) {
		return nil, ErrInvalidHash
	}

	path := s.pointerPath(b3)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("snapshot", b3)
		}
		return nil, errors.NewIO("read", path, err)
	}

	var p blake3Pointer
	if err := json.Unmarshal(data, &p); err != nil {
		perr := errors.NewParse("pointer", path, err.Error())
		perr.Err = err
		return nil, perr
	}
	return &Snapshot{SHA256: p.SHA256, BLAKE3: b3, Source: p.Source, Size: p.Size, Taken: p.Taken}, nil
}

// Blake3Hash computes the BLAKE3-256 of data without storing it.
func Blake3Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}
