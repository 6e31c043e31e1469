package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	tempDir := t.TempDir()

	path := filepath.Join(tempDir, "out.db")
	if err := WriteFileAtomic(path, []byte("\\lx a\n"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(got) != "\\lx a\n" {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteFileAtomic_CreateDir(t *testing.T) {
	tempDir := t.TempDir()

	path := filepath.Join(tempDir, "nested", "deep", "out.db")
	if err := WriteFileAtomic(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("file not created")
	}
}

func TestWriteFileAtomic_Overwrite(t *testing.T) {
	tempDir := t.TempDir()

	path := filepath.Join(tempDir, "out.db")
	if err := os.WriteFile(path, []byte("old content"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("new"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteFileAtomic_PermissionsApplied(t *testing.T) {
	tempDir := t.TempDir()

	path := filepath.Join(tempDir, "out.db")
	if err := WriteFileAtomic(path, []byte("x"), 0600); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if mode := FileMode(path, 0); mode != 0600 {
		t.Errorf("mode = %v, want 0600", mode)
	}
}

func TestWriteAtomic_WriterError(t *testing.T) {
	tempDir := t.TempDir()

	path := filepath.Join(tempDir, "out.db")
	boom := errors.New("boom")
	err := WriteAtomic(path, 0644, func(w io.Writer) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("target file should not exist after a failed write")
	}
	entries, _ := os.ReadDir(tempDir)
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestWriteAtomic_RenameError(t *testing.T) {
	tempDir := t.TempDir()

	orig := osRename
	osRename = func(string, string) error { return errors.New("rename failed") }
	defer func() { osRename = orig }()

	err := WriteFileAtomic(filepath.Join(tempDir, "out.db"), []byte("x"), 0644)
	if err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(tempDir)
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestWriteFileAtomic_DirectoryBlocked(t *testing.T) {
	tempDir := t.TempDir()

	blocker := filepath.Join(tempDir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create blocker: %v", err)
	}
	if err := WriteFileAtomic(filepath.Join(blocker, "out.db"), []byte("x"), 0644); err == nil {
		t.Error("expected error when a file blocks the directory")
	}
}

func TestFileMode_Missing(t *testing.T) {
	if mode := FileMode("/nonexistent/file", 0640); mode != 0640 {
		t.Errorf("FileMode() = %v, want default", mode)
	}
}
