package contract

import (
	"context"
	"time"

	"github.com/thu-intern/contract-generator/internal/models"
)

// TemplateRenderer fills the document template with the context values
type TemplateRenderer interface {
	// Render returns the filled document bytes
	Render(ctx context.Context, values map[string]string) ([]byte, error)

	// TemplatePath is the template location, reported to the operator when rendering fails
	TemplatePath() string
}

// GenerationRecorder stores the audit record of a generation attempt
type GenerationRecorder interface {
	Create(ctx context.Context, gen *models.Generation) error
}

// DocumentArchiver keeps a copy of a generated document and returns where it was written
type DocumentArchiver interface {
	Archive(doc *Document) (string, error)
}

// MetricsRecorder observes generation outcomes
type MetricsRecorder interface {
	ObserveGeneration(outcome string, duration time.Duration, sizeBytes int)
}
