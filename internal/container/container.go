package container

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/thu-intern/contract-generator/internal/config"
	"github.com/thu-intern/contract-generator/internal/contract"
	httpapi "github.com/thu-intern/contract-generator/internal/interfaces/http"
	"github.com/thu-intern/contract-generator/internal/repository"
	"github.com/thu-intern/contract-generator/pkg/database"
)

// Container owns every component of the service.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config  *config.Config
	version string
	logger  *zap.Logger

	// Data
	db          *database.DB
	generations *repository.GenerationRepository

	// Documents
	documents *DocumentBundle
	generator *contract.Generator

	// Observability
	observability *ObservabilityBundle

	// Interface
	server *httpapi.Server

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// Unhealthy lists the names of failing components, sorted
func (s *HealthStatus) Unhealthy() []string {
	var names []string
	for name, c := range s.Components {
		if !c.Healthy {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// NewContainer creates a new container from configuration.
// It does not initialize components; call Start to initialize.
func NewContainer(cfg *config.Config, version string, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config:  cfg,
		version: version,
		logger:  logger,
	}, nil
}

// Start initializes all components:
// 1. Database and repositories
// 2. Metrics
// 3. Template renderer, archiver and exporter
// 4. Contract generator
// 5. HTTP server
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	db, err := ProvideDatabase(ctx, c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.db = db
	c.generations = repository.NewGenerationRepository(db.DB, c.logger)
	c.logger.Info("Database initialized")

	c.observability = ProvideObservability()

	documents, err := ProvideDocuments(c.config.Contract, c.logger)
	if err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize documents: %w", err)
	}
	c.documents = documents
	c.logger.Info("Document components initialized",
		zap.String("template_path", documents.Renderer.TemplatePath()),
		zap.Bool("archive_enabled", documents.Archiver != nil))

	c.generator = contract.NewGenerator(
		documents.Renderer,
		c.generations,
		documents.Archiver,
		c.observability.Metrics,
		contract.GeneratorConfig{FileNamePrefix: c.config.Contract.FileNamePrefix},
		c.logger,
	)

	server, err := ProvideServer(c.config, httpapi.Dependencies{
		Generator: c.generator,
		Template:  documents.Renderer,
		History:   c.generations,
		Exporter:  documents.Exporter,
		Checks:    c.healthChecks(),
	}, c.observability, c.version, c.logger)
	if err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize http server: %w", err)
	}
	c.server = server

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Serve runs the HTTP server until ctx is cancelled
func (c *Container) Serve(ctx context.Context) error {
	if !c.ready.Load() {
		return fmt.Errorf("container not started")
	}
	return c.server.Start(ctx)
}

// Close shuts down all components in reverse order
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error
	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop http server: %w", err))
		}
	}
	if err := c.closeDatabase(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return errors.Join(errs...)
	}

	c.logger.Info("Container closed successfully")
	return nil
}

func (c *Container) closeDatabase() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
		return err
	}
	c.logger.Info("Database closed")
	return nil
}

// Ready returns true when all components are initialized
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health runs every component check
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	for name, check := range c.healthChecks() {
		if err := check(ctx); err != nil {
			status.Components[name] = ComponentHealth{Healthy: false, Message: err.Error()}
			status.Overall = false
			continue
		}
		status.Components[name] = ComponentHealth{Healthy: true}
	}

	return status
}

// healthChecks covers the database connection and the contract template.
// A missing template keeps the service up; only generation fails.
func (c *Container) healthChecks() map[string]httpapi.HealthCheck {
	return map[string]httpapi.HealthCheck{
		"database": func(ctx context.Context) error {
			if c.db == nil {
				return fmt.Errorf("not initialized")
			}
			return c.db.PingContext(ctx)
		},
		"template": func(context.Context) error {
			if c.documents == nil {
				return fmt.Errorf("not initialized")
			}
			return c.documents.Renderer.ValidateTemplate()
		},
	}
}

// Generator returns the contract generator
func (c *Container) Generator() *contract.Generator {
	return c.generator
}

// Generations returns the audit log repository
func (c *Container) Generations() *repository.GenerationRepository {
	return c.generations
}

// Server returns the HTTP server
func (c *Container) Server() *httpapi.Server {
	return c.server
}

// Logger returns the container's logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration
func (c *Container) Config() *config.Config {
	return c.config
}
