package cas

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/sfmlex/core/errors"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

// TestPutAndGet checks that content comes back byte for byte.
func TestPutAndGet(t *testing.T) {
	store := newStore(t)
	data := []byte("\uFEFF\\_sh v3.0\n\\lx pal\n\\ge arm\n")

	hash, err := store.Put(data)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if hash != Hash(data) {
		t.Errorf("hash mismatch: got %s, want %s", hash, Hash(data))
	}
	if !store.Exists(hash) {
		t.Error("Exists() = false after Put")
	}

	got, err := store.Get(hash)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("content mismatch: got %q, want %q", got, data)
	}
}

// TestPutCompresses checks that the blob on disk is xz, not plain text.
func TestPutCompresses(t *testing.T) {
	store := newStore(t)
	data := []byte(strings.Repeat("\\lx pal\n\\ge arm\n", 500))

	hash, err := store.Put(data)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	raw, err := os.ReadFile(store.pathForHash(hash))
	if err != nil {
		t.Fatalf("failed to read blob: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}) {
		t.Error("blob is not xz-compressed")
	}
	if len(raw) >= len(data) {
		t.Errorf("compressed size %d not smaller than %d", len(raw), len(data))
	}
}

func TestPutDuplicate(t *testing.T) {
	store := newStore(t)
	data := []byte("\\lx a\n")

	h1, err := store.Put(data)
	if err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	h2, err := store.Put(data)
	if err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	if h1 != h2 {
		t.Errorf("hashes differ: %s vs %s", h1, h2)
	}

	entries, err := os.ReadDir(filepath.Dir(store.pathForHash(h1)))
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 blob, found %d", len(entries))
	}
}

func TestPutEmpty(t *testing.T) {
	store := newStore(t)
	hash, err := store.Put(nil)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := store.Get(hash)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d bytes, want 0", len(got))
	}
}

func TestGetErrors(t *testing.T) {
	store := newStore(t)

	tests := []struct {
		name   string
		hash   string
		target error
	}{
		{"invalid hash", "xyz", ErrInvalidHash},
		{"uppercase hash", strings.Repeat("A", 64), ErrInvalidHash},
		{"missing", strings.Repeat("a", 64), errors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Get(tt.hash)
			if !errors.Is(err, tt.target) {
				t.Errorf("Get() error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestGetDetectsCorruption(t *testing.T) {
	store := newStore(t)
	h1, _ := store.Put([]byte("one"))
	h2, _ := store.Put([]byte("two"))

	// Swap the blobs so content no longer matches its name.
	blob2, err := os.ReadFile(store.pathForHash(h2))
	if err != nil {
		t.Fatalf("failed to read blob: %v", err)
	}
	if err := os.WriteFile(store.pathForHash(h1), blob2, 0644); err != nil {
		t.Fatalf("failed to overwrite blob: %v", err)
	}

	if _, err := store.Get(h1); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Get() error = %v, want validation failure", err)
	}
}

func TestExistsInvalid(t *testing.T) {
	store := newStore(t)
	if store.Exists("not-a-hash") {
		t.Error("Exists() = true for invalid hash")
	}
}

func TestNewStoreBlocked(t *testing.T) {
	tempDir := t.TempDir()
	blocker := filepath.Join(tempDir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if _, err := NewStore(blocker); err == nil {
		t.Error("NewStore should fail when root is a file")
	}
}
