// Package media stores uploaded post images on local disk.
package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	imageDir = "posts_images"
	// MaxImageSize is the largest accepted upload in bytes.
	MaxImageSize = 5 << 20
)

var (
	ErrUnsupported = errors.New("unsupported image type")
	ErrTooLarge    = errors.New("image too large")
)

// allowedTypes are matched against the sniffed content, not the file name.
var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir is the root served under /media/.
func (s *Store) Dir() string { return s.dir }

// Save writes an uploaded image under a fresh name and returns its path
// relative to Dir, e.g. "posts_images/<uuid>.png".
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupported
	}
	if fh.Size > MaxImageSize {
		return "", ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	kind, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("sniff upload: %w", err)
	}
	if !isImage(kind) {
		return "", ErrUnsupported
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	rel := path.Join(imageDir, uuid.NewString()+ext)
	if err := os.MkdirAll(filepath.Join(s.dir, imageDir), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	dst, err := os.Create(filepath.Join(s.dir, filepath.FromSlash(rel)))
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close image: %w", err)
	}
	return rel, nil
}

func isImage(kind *mimetype.MIME) bool {
	for _, t := range allowedTypes {
		if kind.Is(t) {
			return true
		}
	}
	return false
}
