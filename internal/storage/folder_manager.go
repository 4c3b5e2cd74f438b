package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
)

// DateLayout names the per-day archive folders, e.g. 2025-07-01
const DateLayout = "2006-01-02"

// FolderManager manages the per-day folders of the document archive
type FolderManager struct {
	baseDir string
	logger  *zap.Logger
}

// NewFolderManager creates a new FolderManager
func NewFolderManager(baseDir string, logger *zap.Logger) *FolderManager {
	return &FolderManager{
		baseDir: baseDir,
		logger:  logger,
	}
}

// BaseDir returns the archive root
func (m *FolderManager) BaseDir() string {
	return m.baseDir
}

// CreateDateFolder creates {baseDir}/{YYYY-MM-DD}/ for day, in the local time zone.
// Returns the full path to the folder.
func (m *FolderManager) CreateDateFolder(day time.Time) (string, error) {
	if day.IsZero() {
		return "", fmt.Errorf("cannot create folder: zero date")
	}

	folderPath := m.DateFolderPath(day)
	if err := os.MkdirAll(folderPath, 0755); err != nil {
		m.logger.Error("Failed to create archive folder",
			zap.String("folder_path", folderPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	m.logger.Debug("Archive folder ready", zap.String("folder_path", folderPath))

	return folderPath, nil
}

// DateFolderPath returns the folder for day without creating it
func (m *FolderManager) DateFolderPath(day time.Time) string {
	return filepath.Join(m.baseDir, day.Local().Format(DateLayout))
}

// FolderExists checks if the folder for day already exists
func (m *FolderManager) FolderExists(day time.Time) bool {
	info, err := os.Stat(m.DateFolderPath(day))
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ListDateFolders returns the archive days present on disk, oldest first.
// Entries that are not date folders are ignored; a missing base directory yields nothing.
func (m *FolderManager) ListDateFolders() ([]string, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list archive folders: %w", err)
	}

	var days []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := time.Parse(DateLayout, entry.Name()); err != nil {
			continue
		}
		days = append(days, entry.Name())
	}
	sort.Strings(days)
	return days, nil
}
