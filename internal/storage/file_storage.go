package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrPathEscapes is returned for paths that resolve outside the storage root
var ErrPathEscapes = errors.New("path escapes storage root")

// FileStorage writes generated documents below a root directory
type FileStorage interface {
	// SaveFile writes content to fullPath, creating parent directories.
	// Readers never observe a partially written document.
	SaveFile(fullPath string, content []byte) error

	ValidatePath(fullPath string) error
}

// LocalFileStorage implements FileStorage on the local filesystem
type LocalFileStorage struct {
	root   string
	logger *zap.Logger
}

// NewLocalFileStorage creates a storage rooted at root
func NewLocalFileStorage(root string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		root:   root,
		logger: logger,
	}
}

// SaveFile writes to a hidden temp file next to fullPath and renames it into place
func (s *LocalFileStorage) SaveFile(fullPath string, content []byte) (err error) {
	if err := s.ValidatePath(fullPath); err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
			s.logger.Error("Failed to save file", zap.String("path", fullPath), zap.Error(err))
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	// CreateTemp uses 0600
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err = os.Rename(tmp.Name(), fullPath); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	s.logger.Debug("File saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))
	return nil
}

// ValidatePath rejects paths that resolve outside the root, including siblings sharing its prefix
func (s *LocalFileStorage) ValidatePath(fullPath string) error {
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return fmt.Errorf("failed to resolve storage root: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrPathEscapes, fullPath)
	}
	return nil
}
