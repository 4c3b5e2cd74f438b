package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/thu-intern/contract-generator/internal/config"
	"github.com/thu-intern/contract-generator/internal/container"
	"github.com/thu-intern/contract-generator/pkg/utils"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file, empty for defaults")
	flag.Parse()

	// Optional .env for local runs; real environment variables win
	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "contract-generator",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting internship contract generator",
		zap.String("version", version),
		zap.String("address", cfg.Server.Address()),
		zap.String("template_path", cfg.Contract.TemplatePath))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := container.NewContainer(cfg, version, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := app.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}

	// The form stays available without a template; generation reports the problem to the operator
	if health := app.Health(ctx); !health.Overall {
		for _, name := range health.Unhealthy() {
			logger.Warn("Component unhealthy at startup",
				zap.String("component", name),
				zap.String("message", health.Components[name].Message))
		}
	}

	serveErr := app.Serve(ctx)
	if serveErr != nil {
		logger.Error("HTTP server stopped with error", zap.Error(serveErr))
	}

	if err := app.Close(); err != nil {
		logger.Error("Shutdown completed with errors", zap.Error(err))
	}
	logger.Info("Server exited")

	if serveErr != nil {
		os.Exit(1)
	}
}
