// Package covers stores uploaded book cover images on disk.
package covers

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// MaxUploadSize bounds a single cover upload (5 MiB).
const MaxUploadSize = 5 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Storage writes covers under a single directory, one file per book.
type Storage struct {
	dir string
}

// NewStorage creates the cover directory if needed.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create covers directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Save writes an uploaded cover for the book and returns the stored
// filename. An existing cover with a different extension is replaced.
func (s *Storage) Save(bookID uint, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxUploadSize {
		return "", fmt.Errorf("cover exceeds maximum size of %d bytes", MaxUploadSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("unsupported cover format %q", ext)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	s.removeExisting(bookID)

	name := fmt.Sprintf("book-%d%s", bookID, ext)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create cover file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write cover file: %w", err)
	}
	return name, nil
}

// Path resolves a stored cover filename to its absolute location.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Exists reports whether the named cover is on disk.
func (s *Storage) Exists(name string) bool {
	if name == "" {
		return false
	}
	_, err := os.Stat(s.Path(name))
	return err == nil
}

func (s *Storage) removeExisting(bookID uint) {
	for ext := range allowedExtensions {
		_ = os.Remove(filepath.Join(s.dir, fmt.Sprintf("book-%d%s", bookID, ext)))
	}
}
