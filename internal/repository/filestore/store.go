// Package filestore validates uploaded documents and persists them on local disk.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/extract"
)

// DefaultMaxBytes is the upload size limit.
const DefaultMaxBytes int64 = 5 * 1024 * 1024

// Content types accepted for DOCX uploads. Some clients send a generic
// octet-stream, so the extension check carries the weight.
var allowedContentTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/octet-stream": true,
}

// Upload is a document received from a client.
type Upload struct {
	Filename    string
	ContentType string // empty skips the check
	Body        io.Reader
}

// Store writes uploads under a root directory.
type Store struct {
	root     string
	tempDir  string
	maxBytes int64
}

// New creates a store. An empty root only allows temporary saves.
func New(root string, maxBytes int64) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{root: root, tempDir: os.TempDir(), maxBytes: maxBytes}
}

// Root returns the document root.
func (s *Store) Root() string { return s.root }

// MaxBytes returns the upload size limit.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Save validates the upload, stores it as root/{base filename} replacing any
// existing file atomically, and runs apply on the stored path. When apply fails
// the previous file is put back (or the new one removed) and apply's error is
// returned. A nil apply keeps the upload unconditionally. Returns the stored path.
func (s *Store) Save(u Upload, apply func(path string) error) (string, error) {
	if s.root == "" {
		return "", fmt.Errorf("document root is not set: %w", domain.ErrConfiguration)
	}
	name, err := Validate(u)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create document root: %w", err)
	}

	tmp, err := s.write(s.root, u.Body)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.root, name)
	backup, err := s.keepPrevious(dst)
	if err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		removeBackup(backup)
		return "", fmt.Errorf("store upload: %w", err)
	}

	if apply != nil {
		if err := apply(dst); err != nil {
			if rerr := restore(dst, backup); rerr != nil {
				return "", errors.Join(err, rerr)
			}
			return "", err
		}
	}
	removeBackup(backup)
	return dst, nil
}

// keepPrevious hard-links an existing dst under a hidden name so it can be restored.
// Returns "" when there is nothing to keep.
func (s *Store) keepPrevious(dst string) (string, error) {
	backup := filepath.Join(s.root, ".backup-"+uuid.NewString()+extract.Extension)
	if err := os.Link(dst, backup); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("keep previous upload: %w", err)
	}
	return backup, nil
}

// restore undoes a replacement: the backup goes back to dst, or dst is removed if it was new.
func restore(dst, backup string) error {
	if backup == "" {
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove rejected upload: %w", err)
		}
		return nil
	}
	if err := os.Rename(backup, dst); err != nil {
		return fmt.Errorf("restore previous upload: %w", err)
	}
	return nil
}

func removeBackup(backup string) {
	if backup != "" {
		_ = os.Remove(backup)
	}
}

// SaveTemp validates the upload and writes it to a temporary file.
// The caller must invoke cleanup when done.
func (s *Store) SaveTemp(u Upload) (path string, cleanup func(), err error) {
	if _, err := Validate(u); err != nil {
		return "", nil, err
	}
	tmp, err := s.write(s.tempDir, u.Body)
	if err != nil {
		return "", nil, err
	}
	return tmp, func() { _ = os.Remove(tmp) }, nil
}

// write copies body into a uniquely named .docx file in dir, enforcing the size limit.
func (s *Store) write(dir string, body io.Reader) (string, error) {
	path := filepath.Join(dir, ".upload-"+uuid.NewString()+extract.Extension)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(body, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxBytes {
		err = domain.NewValidationError("file",
			fmt.Sprintf("File too large; max allowed is %d MB.", s.maxBytes/(1024*1024)))
	}
	if err != nil {
		_ = os.Remove(path)
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return "", err
		}
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}

// Validate checks the filename and content type. Returns the base filename to store under.
func Validate(u Upload) (string, error) {
	name := filepath.Base(strings.TrimSpace(u.Filename))
	if u.Filename == "" || name == "." || name == string(filepath.Separator) {
		return "", domain.NewValidationError("file", "Filename missing; please upload a .docx file.")
	}
	if !strings.EqualFold(filepath.Ext(name), extract.Extension) {
		return "", domain.NewValidationError("file", "Unsupported file type; please upload a .docx file.")
	}
	if ct := contentType(u.ContentType); ct != "" && !allowedContentTypes[ct] {
		return "", domain.NewValidationError("file", "Unsupported content type; please upload a DOCX file.")
	}
	return name, nil
}

// contentType strips parameters such as "; charset=binary".
func contentType(v string) string {
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}
