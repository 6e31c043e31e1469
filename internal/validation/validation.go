// Package validation checks the file paths and file contents the CLI is
// asked to read or write before any parsing starts.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Limits on inputs.
const (
	// MaxFileSize is the largest lexicon accepted (256 MB).
	MaxFileSize = 256 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
	// sniffSize is how much of a file is read to detect its content.
	sniffSize = 512
)

// Common validation errors.
var (
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrNotRegular       = errors.New("not a regular file")
	ErrTooLarge         = errors.New("file too large")
	ErrNotText          = errors.New("not a text lexicon")
	ErrSamePath         = errors.New("output would overwrite input")
)

// ValidatePath checks length limits and rejects control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidateFilename checks a single path element.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}
	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}
	// A leading hyphen reads as a flag in shell pipelines.
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}
	return nil
}

// ContentType is what the first bytes of a file look like.
type ContentType string

const (
	ContentText    ContentType = "text"
	ContentUTF16   ContentType = "utf-16"
	ContentXZ      ContentType = "xz"
	ContentGzip    ContentType = "gzip"
	ContentZip     ContentType = "zip"
	ContentSQLite  ContentType = "sqlite"
	ContentBinary  ContentType = "binary"
	ContentEmpty   ContentType = "empty"
	ContentUnknown ContentType = "unknown"
)

// magicBytes lists signatures of files that are commonly mistaken for an
// exported lexicon.
var magicBytes = []struct {
	content ContentType
	magic   []byte
}{
	{ContentXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{ContentGzip, []byte{0x1f, 0x8b}},
	{ContentZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{ContentSQLite, []byte("SQLite format 3")},
	{ContentUTF16, []byte{0xff, 0xfe}},
	{ContentUTF16, []byte{0xfe, 0xff}},
}

// DetectContent classifies the start of a file.
func DetectContent(buf []byte) ContentType {
	if len(buf) == 0 {
		return ContentEmpty
	}
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.content
		}
	}
	if isLikelyText(buf) {
		return ContentText
	}
	return ContentBinary
}

// SniffContent reads the head of r and classifies it.
func SniffContent(r io.Reader) (ContentType, error) {
	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ContentUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	return DetectContent(buf[:n]), nil
}

// CheckInput verifies that path names a regular file within the size limit
// whose content looks like a text lexicon. It returns the file size.
func CheckInput(path string) (int64, error) {
	if err := ValidatePath(path); err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	if info.Size() > MaxFileSize {
		return 0, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	content, err := SniffContent(f)
	if err != nil {
		return 0, err
	}
	switch content {
	case ContentText, ContentEmpty:
		return info.Size(), nil
	default:
		return 0, fmt.Errorf("%w: %s looks like %s", ErrNotText, path, content)
	}
}

// CheckOutput verifies that out is a writable destination distinct from
// every input.
func CheckOutput(out string, inputs ...string) error {
	if err := ValidatePath(out); err != nil {
		return err
	}
	if err := ValidateFilename(filepath.Base(out)); err != nil {
		return err
	}
	dir := filepath.Dir(out)
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidFilename, dir)
	}

	absOut, err := filepath.Abs(out)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		absIn, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		if absIn == absOut {
			return fmt.Errorf("%w: %s", ErrSamePath, out)
		}
	}
	return nil
}

// isLikelyText reports whether buf is mostly printable bytes with no NULs.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 || b == 0x7f {
			control++
		}
		// bytes >= 0x80 belong to multi-byte UTF-8 sequences and count as neither
	}

	if printable > 0 && float64(printable)/float64(printable+control) > 0.95 {
		return true
	}
	return false
}
