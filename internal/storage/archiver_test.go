package storage_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thu-intern/contract-generator/internal/contract"
	"github.com/thu-intern/contract-generator/internal/storage"
)

func TestArchiver_Archive(t *testing.T) {
	tempDir := t.TempDir()
	archiver := storage.NewArchiver(tempDir, zap.NewNop())

	doc := &contract.Document{
		ID:        "5f0c1d2e",
		FileName:  "東海大學實習合約_王小明_東海公司.docx",
		Bytes:     []byte("PK\x03\x04 contract"),
		CreatedAt: time.Date(2025, time.July, 1, 10, 0, 0, 0, time.Local),
	}

	path, err := archiver.Archive(doc)
	require.NoError(t, err)

	want := filepath.Join(tempDir, "2025-07-01", "5f0c1d2e_東海大學實習合約_王小明_東海公司.docx")
	assert.Equal(t, want, path)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Bytes, saved)

	// a second contract on the same day lands in the same folder
	second := *doc
	second.ID = "9a8b7c6d"
	_, err = archiver.Archive(&second)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(tempDir, "2025-07-01"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestArchiver_Archive_UnsafeFileName(t *testing.T) {
	tempDir := t.TempDir()
	archiver := storage.NewArchiver(tempDir, zap.NewNop())

	path, err := archiver.Archive(&contract.Document{
		ID:        "id",
		FileName:  "../../合約.docx",
		Bytes:     []byte("x"),
		CreatedAt: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.Local),
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "2025-07-01", "id_合約.docx"), path)
}

func TestArchiver_Archive_Empty(t *testing.T) {
	archiver := storage.NewArchiver(t.TempDir(), zap.NewNop())

	_, err := archiver.Archive(&contract.Document{ID: "id", CreatedAt: time.Now()})
	assert.Error(t, err)

	_, err = archiver.Archive(nil)
	assert.Error(t, err)
}
