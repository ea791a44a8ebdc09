package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxUploadSize bounds a single attachment upload.
const maxUploadSize = 10 << 20 // 10 MiB

// allowedMimeTypes lists the attachment content types the service accepts.
var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// LocalStore persists uploaded attachments on the local filesystem under a
// per-form directory. Stored names are random UUIDs; the original filename
// lives only in the database row.
type LocalStore struct {
	root   string
	logger *logrus.Logger
}

// NewLocalStore creates the storage root if needed.
func NewLocalStore(root string, logger *logrus.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStore{root: root, logger: logger}, nil
}

// Allowed reports whether the content type and size are acceptable.
func (s *LocalStore) Allowed(mimeType string, size int64) error {
	if size <= 0 || size > maxUploadSize {
		return fmt.Errorf("file size %d outside allowed range", size)
	}
	if !allowedMimeTypes[strings.ToLower(mimeType)] {
		return fmt.Errorf("content type %q not allowed", mimeType)
	}
	return nil
}

// Save streams an upload to disk and returns the stored filename and path.
func (s *LocalStore) Save(formID uuid.UUID, originalName string, src io.Reader) (filename, path string, size int64, err error) {
	dir := filepath.Join(s.root, formID.String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", "", 0, fmt.Errorf("failed to create form directory: %w", err)
	}

	filename = uuid.New().String() + filepath.Ext(originalName)
	path = filepath.Join(dir, filename)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	size, err = io.Copy(dst, io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		os.Remove(path)
		return "", "", 0, fmt.Errorf("failed to write file: %w", err)
	}
	if size > maxUploadSize {
		os.Remove(path)
		return "", "", 0, fmt.Errorf("file exceeds maximum size")
	}
	return filename, path, size, nil
}

// Open returns a reader over a stored file.
func (s *LocalStore) Open(path string) (io.ReadCloser, error) {
	clean := filepath.Clean(path)
	if !strings.HasPrefix(clean, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return nil, fmt.Errorf("path outside storage root")
	}
	return os.Open(clean)
}
