package http

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thu-intern/contract-generator/internal/contract"
	"github.com/thu-intern/contract-generator/internal/models"
	"github.com/thu-intern/contract-generator/internal/report"
)

const (
	defaultListLimit   = 20
	maxListLimit       = 100
	defaultExportLimit = 10000
	healthCheckTimeout = 2 * time.Second
)

// ContractGenerator builds and renders contracts from form values
type ContractGenerator interface {
	BuildAndRender(ctx context.Context, v contract.FormValues) (*contract.Document, error)
	Preview(v contract.FormValues) (contract.RenderContext, error)
}

// TemplateInspector reads the configured contract template
type TemplateInspector interface {
	Placeholders(ctx context.Context) ([]string, error)
	TemplatePath() string
}

// GenerationHistory reads the generation audit log
type GenerationHistory interface {
	List(ctx context.Context, limit, offset int) ([]*models.Generation, error)
	Count(ctx context.Context) (int, error)
	CountByOutcome(ctx context.Context) (map[string]int, error)
}

// HistoryExporter turns audit records into a spreadsheet
type HistoryExporter interface {
	Export(records []*models.Generation) ([]byte, error)
}

// HealthCheck reports whether one component is usable
type HealthCheck func(ctx context.Context) error

// Dependencies are the collaborators of the handlers.
// Generator is required; history, exporter and template routes answer 503 without theirs.
type Dependencies struct {
	Generator ContractGenerator
	Template  TemplateInspector
	History   GenerationHistory
	Exporter  HistoryExporter
	Checks    map[string]HealthCheck
}

// HandlersConfig holds handler configuration
type HandlersConfig struct {
	Limits      InputLimits
	Version     string
	ExportLimit int
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	cfg    HandlersConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, cfg HandlersConfig, logger *zap.Logger) *Handlers {
	if cfg.ExportLimit <= 0 {
		cfg.ExportLimit = defaultExportLimit
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Handlers{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Hint    string      `json:"hint,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// PlaceholdersResponse lists the names a template expects
type PlaceholdersResponse struct {
	TemplatePath string   `json:"template_path"`
	Placeholders []string `json:"placeholders"`
}

// GenerationListResponse is one page of the audit log
type GenerationListResponse struct {
	Items    []*models.Generation `json:"items"`
	Total    int                  `json:"total"`
	Outcomes map[string]int       `json:"outcomes"`
	Limit    int                  `json:"limit"`
	Offset   int                  `json:"offset"`
}

// ListGenerationsRequest represents query parameters for listing generations
type ListGenerationsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// pageData feeds the form page
type pageData struct {
	MinROCYear         int
	MaxROCYear         int
	MinimumMonthlyWage int64
	DefaultStart       string
	DefaultEnd         string
	StudentSlots       []int
	Version            string
}

// Index handles GET /
func (h *Handlers) Index(c *gin.Context) {
	now := h.now()
	slots := make([]int, contract.MaxStudents)
	for i := range slots {
		slots[i] = i + 1
	}

	c.HTML(http.StatusOK, "index.html", pageData{
		MinROCYear:         h.cfg.Limits.MinROCYear,
		MaxROCYear:         h.cfg.Limits.MaxROCYear,
		MinimumMonthlyWage: h.cfg.Limits.MinimumMonthlyWage,
		DefaultStart:       time.Date(now.Year(), time.July, 1, 0, 0, 0, 0, time.Local).Format(dateLayout),
		DefaultEnd:         time.Date(now.Year()+1, time.June, 30, 0, 0, 0, 0, time.Local).Format(dateLayout),
		StudentSlots:       slots,
		Version:            h.cfg.Version,
	})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := "healthy"
	components := make(map[string]string, len(h.deps.Checks))
	for name, check := range h.deps.Checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("component", name), zap.Error(err))
			components[name] = err.Error()
			status = "degraded"
			continue
		}
		components[name] = "ok"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, Response{
		Success: code == http.StatusOK,
		Data: HealthResponse{
			Status:     status,
			Timestamp:  h.now().UTC().Format(time.RFC3339),
			Version:    h.cfg.Version,
			Components: components,
		},
	})
}

// GenerateContract handles POST /api/contracts
func (h *Handlers) GenerateContract(c *gin.Context) {
	values, ok := h.bindContract(c)
	if !ok {
		return
	}

	doc, err := h.deps.Generator.BuildAndRender(c.Request.Context(), values)
	if err != nil {
		h.respondGenerationError(c, err)
		return
	}

	c.Header("Content-Disposition", attachment(doc.FileName))
	c.Header("X-Generation-ID", doc.ID)
	c.Data(http.StatusOK, doc.ContentType, doc.Bytes)
}

// PreviewContract handles POST /api/contracts/preview
func (h *Handlers) PreviewContract(c *gin.Context) {
	values, ok := h.bindContract(c)
	if !ok {
		return
	}

	rc, err := h.deps.Generator.Preview(values)
	if err != nil {
		h.respondGenerationError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    rc.Strings(),
	})
}

// ListPlaceholders handles GET /api/template/placeholders
func (h *Handlers) ListPlaceholders(c *gin.Context) {
	if h.deps.Template == nil {
		unavailable(c, "template inspection is not configured")
		return
	}

	names, err := h.deps.Template.Placeholders(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read template placeholders",
			zap.String("template_path", h.deps.Template.TemplatePath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   fmt.Sprintf(contract.MsgGenerationFailed, err.Error()),
			Hint:    fmt.Sprintf(contract.HintTemplateMissing, h.deps.Template.TemplatePath()),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: PlaceholdersResponse{
			TemplatePath: h.deps.Template.TemplatePath(),
			Placeholders: names,
		},
	})
}

// ListGenerations handles GET /api/generations
func (h *Handlers) ListGenerations(c *gin.Context) {
	if h.deps.History == nil {
		unavailable(c, "generation history is not configured")
		return
	}

	var req ListGenerationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Invalid query parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 || req.Limit > maxListLimit {
		req.Limit = defaultListLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	ctx := c.Request.Context()
	items, err := h.deps.History.List(ctx, req.Limit, req.Offset)
	if err != nil {
		h.historyFailed(c, err)
		return
	}
	total, err := h.deps.History.Count(ctx)
	if err != nil {
		h.historyFailed(c, err)
		return
	}
	outcomes, err := h.deps.History.CountByOutcome(ctx)
	if err != nil {
		h.historyFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: GenerationListResponse{
			Items:    items,
			Total:    total,
			Outcomes: outcomes,
			Limit:    req.Limit,
			Offset:   req.Offset,
		},
	})
}

// ExportGenerations handles GET /api/generations/export
func (h *Handlers) ExportGenerations(c *gin.Context) {
	if h.deps.History == nil || h.deps.Exporter == nil {
		unavailable(c, "generation export is not configured")
		return
	}

	records, err := h.deps.History.List(c.Request.Context(), h.cfg.ExportLimit, 0)
	if err != nil {
		h.historyFailed(c, err)
		return
	}

	data, err := h.deps.Exporter.Export(records)
	if err != nil {
		h.logger.Error("Failed to export generations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to export generation history",
		})
		return
	}

	fileName := fmt.Sprintf("contract_generations_%s.xlsx", h.now().Format("20060102"))
	c.Header("Content-Disposition", attachment(fileName))
	c.Data(http.StatusOK, report.XLSXContentType, data)
}

// bindContract parses the request into form values, answering 400 when it cannot
func (h *Handlers) bindContract(c *gin.Context) (contract.FormValues, bool) {
	var req ContractRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("Invalid contract request", zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return contract.FormValues{}, false
	}

	values, err := req.ToFormValues(h.cfg.Limits, h.now())
	if err != nil {
		var inputErr *InputError
		if errors.As(err, &inputErr) {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   "invalid input",
				Details: inputErr.Fields,
			})
			return contract.FormValues{}, false
		}
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return contract.FormValues{}, false
	}

	return values, true
}

func (h *Handlers) respondGenerationError(c *gin.Context, err error) {
	var userErr *contract.UserError
	if !errors.As(err, &userErr) {
		h.logger.Error("Contract generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to generate contract",
		})
		return
	}

	switch userErr.Kind {
	case contract.KindValidation:
		var details interface{}
		var validationErr *contract.ValidationError
		if errors.As(err, &validationErr) {
			details = validationErr.Fields
		}
		c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Error:   userErr.Message,
			Details: details,
		})
	default:
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   userErr.Message,
			Hint:    userErr.Hint,
		})
	}
}

func (h *Handlers) historyFailed(c *gin.Context, err error) {
	h.logger.Error("Failed to read generation history", zap.Error(err))
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error:   "failed to retrieve generation history",
	})
}

func unavailable(c *gin.Context, msg string) {
	c.JSON(http.StatusServiceUnavailable, Response{
		Success: false,
		Error:   msg,
	})
}

// attachment builds a Content-Disposition value; non-ASCII names use the RFC 2231 filename* form
func attachment(fileName string) string {
	value := mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
	if value == "" {
		return "attachment"
	}
	return value
}
