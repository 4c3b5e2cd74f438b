// Package container wires the contract generator's components and owns their lifecycle.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/thu-intern/contract-generator/internal/config"
	"github.com/thu-intern/contract-generator/internal/contract"
	"github.com/thu-intern/contract-generator/internal/docx"
	httpapi "github.com/thu-intern/contract-generator/internal/interfaces/http"
	"github.com/thu-intern/contract-generator/internal/metrics"
	"github.com/thu-intern/contract-generator/internal/report"
	"github.com/thu-intern/contract-generator/internal/storage"
	"github.com/thu-intern/contract-generator/pkg/database"
)

// DocumentBundle holds the template and output components
type DocumentBundle struct {
	Renderer *docx.Renderer
	// Archiver is nil when archiving is disabled
	Archiver contract.DocumentArchiver
	Exporter *report.ExcelExporter
}

// ObservabilityBundle holds the metrics registry and collectors
type ObservabilityBundle struct {
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// ProvideDatabase opens the database and applies the embedded migrations
func ProvideDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*database.DB, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(ctx, database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(ctx, database.Migrations()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// ProvideDocuments creates the template renderer, the optional archiver and the history exporter
func ProvideDocuments(cfg config.ContractConfig, logger *zap.Logger) (*DocumentBundle, error) {
	if cfg.TemplatePath == "" {
		return nil, fmt.Errorf("template path is required")
	}

	bundle := &DocumentBundle{
		Renderer: docx.NewRenderer(docx.Config{
			TemplatePath: cfg.TemplatePath,
			Strict:       cfg.StrictPlaceholders,
		}, logger),
		Exporter: report.NewExcelExporter(time.Local, logger),
	}

	if cfg.ArchiveEnabled {
		if cfg.OutputDir == "" {
			return nil, fmt.Errorf("output directory is required when archiving is enabled")
		}
		bundle.Archiver = storage.NewArchiver(cfg.OutputDir, logger)
	}

	return bundle, nil
}

// ProvideObservability creates a registry carrying the process collectors and the application metrics
func ProvideObservability() *ObservabilityBundle {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &ObservabilityBundle{
		Registry: registry,
		Metrics:  metrics.New(registry),
	}
}

// ProvideServer creates the HTTP server around the generator
func ProvideServer(
	cfg *config.Config,
	deps httpapi.Dependencies,
	obs *ObservabilityBundle,
	version string,
	logger *zap.Logger,
) (*httpapi.Server, error) {
	handlers := httpapi.NewHandlers(deps, httpapi.HandlersConfig{
		Limits: httpapi.InputLimits{
			MinimumMonthlyWage: cfg.Contract.MinimumMonthlyWage,
			MinROCYear:         cfg.Contract.MinROCYear,
			MaxROCYear:         cfg.Contract.MaxROCYear,
		},
		Version: version,
	}, logger)

	return httpapi.NewServer(httpapi.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
	}, handlers, obs.Metrics, obs.Registry, logger)
}
