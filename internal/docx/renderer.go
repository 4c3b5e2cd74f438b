package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const documentPart = "word/document.xml"

// Config holds renderer configuration
type Config struct {
	TemplatePath string
	// Strict rejects templates that reference names absent from the context
	Strict bool
}

// Renderer fills {{ name }} placeholders of a .docx template
type Renderer struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.RWMutex
	cached   []byte
	cachedAt time.Time
	size     int64
}

// NewRenderer creates a new renderer. The template is read lazily and
// reloaded whenever the file changes on disk.
func NewRenderer(cfg Config, logger *zap.Logger) *Renderer {
	return &Renderer{
		cfg:    cfg,
		logger: logger,
	}
}

// TemplatePath returns the configured template location
func (r *Renderer) TemplatePath() string {
	return r.cfg.TemplatePath
}

// Render returns a copy of the template with every placeholder substituted
func (r *Renderer) Render(ctx context.Context, values map[string]string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	templateBytes, err := r.templateBytes()
	if err != nil {
		return nil, err
	}

	reader, err := openArchive(templateBytes)
	if err != nil {
		return nil, err
	}

	missing := make(map[string]struct{})
	var out bytes.Buffer
	writer := zip.NewWriter(&out)

	for _, file := range reader.File {
		content, err := readEntry(file)
		if err != nil {
			return nil, err
		}

		if isTextPart(file.Name) {
			content = []byte(fillPart(string(content), values, missing))
		}

		header := file.FileHeader
		w, err := writer.CreateHeader(&header)
		if err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file.Name, err)
		}
		if _, err := w.Write(content); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize document: %w", err)
	}

	if len(missing) > 0 {
		names := sortedNames(missing)
		if r.cfg.Strict {
			return nil, &PlaceholderError{Missing: names}
		}
		r.logger.Warn("Template placeholders rendered empty",
			zap.String("template_path", r.cfg.TemplatePath),
			zap.Strings("placeholders", names))
	}

	return out.Bytes(), nil
}

// Placeholders lists the distinct placeholder names used by the template, sorted
func (r *Renderer) Placeholders(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	templateBytes, err := r.templateBytes()
	if err != nil {
		return nil, err
	}

	reader, err := openArchive(templateBytes)
	if err != nil {
		return nil, err
	}

	names := make(map[string]struct{})
	for _, file := range reader.File {
		if !isTextPart(file.Name) {
			continue
		}
		content, err := readEntry(file)
		if err != nil {
			return nil, err
		}
		findPlaceholders(string(content), names)
	}

	return sortedNames(names), nil
}

// ValidateTemplate checks that the template exists and is a Word document
func (r *Renderer) ValidateTemplate() error {
	templateBytes, err := r.templateBytes()
	if err != nil {
		return err
	}
	_, err = openArchive(templateBytes)
	return err
}

// templateBytes returns the cached template, reloading it when the file changed
func (r *Renderer) templateBytes() ([]byte, error) {
	info, err := os.Stat(r.cfg.TemplatePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, r.cfg.TemplatePath)
		}
		return nil, fmt.Errorf("failed to stat template: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidTemplate, r.cfg.TemplatePath)
	}

	r.mu.RLock()
	if r.cached != nil && r.cachedAt.Equal(info.ModTime()) && r.size == info.Size() {
		cached := r.cached
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.cfg.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	r.cached = data
	r.cachedAt = info.ModTime()
	r.size = info.Size()

	r.logger.Debug("Template loaded",
		zap.String("template_path", r.cfg.TemplatePath),
		zap.Int("size", len(data)))

	return data, nil
}

func openArchive(data []byte) (*zip.Reader, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	for _, file := range reader.File {
		if file.Name == documentPart {
			return reader, nil
		}
	}
	return nil, fmt.Errorf("%w: missing %s", ErrInvalidTemplate, documentPart)
}

func readEntry(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open %s: %v", ErrInvalidTemplate, file.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %v", ErrInvalidTemplate, file.Name, err)
	}
	return content, nil
}

// isTextPart reports whether the entry holds body, header or footer text
func isTextPart(name string) bool {
	if name == documentPart {
		return true
	}
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	base := strings.TrimPrefix(name, "word/")
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
