package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thu-intern/contract-generator/internal/domain/workflow"
	"github.com/thu-intern/contract-generator/internal/models"
	"github.com/thu-intern/contract-generator/pkg/utils"
)

// DocxContentType is the MIME type of the generated document
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DefaultFileNamePrefix is used when GeneratorConfig.FileNamePrefix is empty
const DefaultFileNamePrefix = "東海大學實習合約"

// Document is a filled contract ready for download
type Document struct {
	ID          string
	FileName    string
	ContentType string
	Bytes       []byte
	ArchivePath string
	CreatedAt   time.Time
}

// GeneratorConfig holds generator configuration
type GeneratorConfig struct {
	FileNamePrefix string
}

// Generator turns form values into a filled contract document
type Generator struct {
	renderer TemplateRenderer
	recorder GenerationRecorder
	archiver DocumentArchiver
	metrics  MetricsRecorder
	cfg      GeneratorConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewGenerator creates a new generator. recorder, archiver and metrics may be nil.
func NewGenerator(
	renderer TemplateRenderer,
	recorder GenerationRecorder,
	archiver DocumentArchiver,
	metrics MetricsRecorder,
	cfg GeneratorConfig,
	logger *zap.Logger,
) *Generator {
	if cfg.FileNamePrefix == "" {
		cfg.FileNamePrefix = DefaultFileNamePrefix
	}
	return &Generator{
		renderer: renderer,
		recorder: recorder,
		archiver: archiver,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Preview builds the template context without rendering the document
func (g *Generator) Preview(v FormValues) (RenderContext, error) {
	rc, err := Build(v)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return nil, newValidationUserError(validationErr)
		}
		return nil, err
	}
	return rc, nil
}

// BuildAndRender validates the form, assembles the context and renders the document.
// Failures are returned as *UserError; the caller keeps its form values and may resubmit.
func (g *Generator) BuildAndRender(ctx context.Context, v FormValues) (*Document, error) {
	start := g.now()
	gen := &models.Generation{
		ID:           uuid.NewString(),
		CompanyName:  v.Institution.Name,
		StudentName:  DisplayName(v),
		ContractType: v.ContractType().String(),
		CreatedAt:    start,
	}

	var rc RenderContext
	submission := workflow.NewSubmission(func(ctx context.Context) error {
		var err error
		rc, err = Build(v)
		return err
	})

	if err := submission.Fire(ctx, workflow.TriggerGenerate); err != nil {
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			return nil, fmt.Errorf("failed to submit contract form: %w", err)
		}

		g.logger.Info("Contract form rejected",
			zap.String("generation_id", gen.ID),
			zap.Strings("missing_fields", validationErr.Fields))

		gen.Outcome = models.OutcomeValidationError
		gen.ErrorMessage = validationErr.Error()
		g.finish(ctx, gen, start)
		return nil, newValidationUserError(validationErr)
	}

	if g.renderer == nil {
		return nil, ErrRendererMissing
	}

	content, err := g.renderer.Render(ctx, rc.Strings())
	if err != nil {
		templateErr := &TemplateError{TemplatePath: g.renderer.TemplatePath(), Err: err}
		g.logger.Error("Failed to render contract template",
			zap.String("generation_id", gen.ID),
			zap.String("template_path", templateErr.TemplatePath),
			zap.Error(err))

		gen.Outcome = models.OutcomeTemplateError
		gen.ErrorMessage = err.Error()
		g.finish(ctx, gen, start)
		return nil, newTemplateUserError(templateErr)
	}

	doc := &Document{
		ID:          gen.ID,
		FileName:    g.fileName(v),
		ContentType: DocxContentType,
		Bytes:       content,
		CreatedAt:   start,
	}

	if g.archiver != nil {
		archivePath, err := g.archiver.Archive(doc)
		if err != nil {
			// The operator still gets the download
			g.logger.Warn("Failed to archive contract document",
				zap.String("generation_id", doc.ID),
				zap.Error(err))
		} else {
			doc.ArchivePath = archivePath
		}
	}

	gen.Outcome = models.OutcomeSuccess
	gen.FileName = doc.FileName
	gen.SizeBytes = int64(len(content))
	gen.ArchivePath = doc.ArchivePath
	g.finish(ctx, gen, start)

	g.logger.Info("Contract generated",
		zap.String("generation_id", doc.ID),
		zap.String("file_name", doc.FileName),
		zap.Int("size", len(content)),
		zap.String("contract_type", gen.ContractType))

	return doc, nil
}

// finish records metrics and the audit row; neither can fail the generation
func (g *Generator) finish(ctx context.Context, gen *models.Generation, start time.Time) {
	if g.metrics != nil {
		g.metrics.ObserveGeneration(gen.Outcome, g.now().Sub(start), int(gen.SizeBytes))
	}
	if g.recorder == nil {
		return
	}
	if err := g.recorder.Create(ctx, gen); err != nil {
		g.logger.Warn("Failed to record contract generation",
			zap.String("generation_id", gen.ID),
			zap.String("outcome", gen.Outcome),
			zap.Error(err))
	}
}

// fileName follows <prefix>_<first student>_<company>.docx
func (g *Generator) fileName(v FormValues) string {
	name := fmt.Sprintf("%s_%s_%s", g.cfg.FileNamePrefix, v.FirstStudentName(), v.Institution.Name)
	return utils.SanitizeFileName(name) + ".docx"
}
