package storage

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/thu-intern/contract-generator/internal/contract"
	"github.com/thu-intern/contract-generator/pkg/utils"
)

// Archiver keeps a copy of every generated contract under
// {outputDir}/{YYYY-MM-DD}/{generation id}_{file name}
type Archiver struct {
	folders *FolderManager
	files   FileStorage
	logger  *zap.Logger
}

// NewArchiver creates an archiver rooted at outputDir
func NewArchiver(outputDir string, logger *zap.Logger) *Archiver {
	return &Archiver{
		folders: NewFolderManager(outputDir, logger),
		files:   NewLocalFileStorage(outputDir, logger),
		logger:  logger,
	}
}

// Archive writes doc and returns the path it was written to
func (a *Archiver) Archive(doc *contract.Document) (string, error) {
	if doc == nil || len(doc.Bytes) == 0 {
		return "", fmt.Errorf("nothing to archive")
	}

	folder, err := a.folders.CreateDateFolder(doc.CreatedAt)
	if err != nil {
		return "", err
	}

	name := utils.SanitizeFileName(doc.ID + "_" + doc.FileName)
	fullPath := filepath.Join(folder, name)
	if err := a.files.SaveFile(fullPath, doc.Bytes); err != nil {
		return "", err
	}

	a.logger.Info("Contract archived",
		zap.String("generation_id", doc.ID),
		zap.String("path", fullPath))

	return fullPath, nil
}
