package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"pdf-ingest-server/internal/domain"
	apperrors "pdf-ingest-server/pkg/errors"
)

// LocalFileStore keeps uploaded documents on local disk. Stored names are
// derived from a fresh UUID, never from the caller-supplied filename, so
// concurrent writers cannot collide.
type LocalFileStore struct {
	dir    string
	logger domain.Logger
}

// NewLocalFileStore ensures the upload directory exists and returns the store.
func NewLocalFileStore(dir string, logger domain.Logger) (*LocalFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewStorageError("failed to create upload directory", err)
	}
	logger.Info("upload directory ensured", "dir", dir)
	return &LocalFileStore{dir: dir, logger: logger}, nil
}

// Save writes content under "<uuid><ext>" and verifies the written length
// matches the input before returning the stored path. A partial write is
// removed before the error propagates.
func (s *LocalFileStore) Save(ctx context.Context, content []byte, originalFilename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.NewStorageError("save cancelled", err)
	}

	ext := filepath.Ext(originalFilename)
	if ext == "" {
		ext = ".pdf"
	}
	path := filepath.Join(s.dir, uuid.NewString()+ext)

	if err := os.WriteFile(path, content, 0o644); err != nil {
		_ = os.Remove(path)
		return "", apperrors.NewStorageError("failed to save document file", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		_ = os.Remove(path)
		return "", apperrors.NewStorageError("file was not saved successfully", err)
	}
	if info.Size() != int64(len(content)) {
		_ = os.Remove(path)
		return "", apperrors.NewStorageError(fmt.Sprintf(
			"file size mismatch: expected %d bytes, got %d bytes", len(content), info.Size()), nil)
	}

	s.logger.Info("document file saved", "bytes", len(content))
	return path, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *LocalFileStore) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperrors.NewStorageError("failed to delete document file", err)
	}
	return nil
}
