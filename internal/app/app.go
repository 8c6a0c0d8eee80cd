package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vk/floodpath/internal/config"
	"github.com/vk/floodpath/internal/ctxlog"
	"github.com/vk/floodpath/internal/metrics"
	"github.com/vk/floodpath/internal/storage"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logW       io.Writer
	logger     *slog.Logger
	appConfig  *Config
	model      *config.Model
	storage    *storage.Storage
	registry   *prometheus.Registry
	metrics    *metrics.Recorder
	runID      string
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App with its own isolated logger and metrics registry. Results
// written to stdout go to outW; logs and the summary go to logW. A
// configuration that cannot be loaded or validated is a fatal startup
// error and panics.
func NewApp(outW, logW io.Writer, appConfig *Config, loader config.Loader) *App {
	runID := uuid.NewString()
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW).With("run_id", runID)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.ConfigPaths...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	appConfig.Overrides.Apply(model)
	if err := model.Validate(); err != nil {
		panic(fmt.Errorf("invalid configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	s3cfg, err := storage.S3ConfigFromEnv(appConfig.EnvFiles...)
	if err != nil {
		panic(err)
	}
	var remote storage.Backend
	if s3cfg.Enabled() {
		s3, err := storage.NewS3(s3cfg)
		if err != nil {
			panic(fmt.Errorf("failed to configure s3 storage: %w", err))
		}
		remote = s3
		logger.Debug("S3 storage configured.", "endpoint", s3cfg.Endpoint)
	}

	reg := prometheus.NewRegistry()
	return &App{
		outW:      outW,
		logW:      logW,
		logger:    logger,
		appConfig: appConfig,
		model:     model,
		storage:   storage.New(storage.Local{}, remote),
		registry:  reg,
		metrics:   metrics.New(reg),
		runID:     runID,
	}
}

// Model returns the effective run configuration. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// RunID returns the id attached to every log line of this App.
func (a *App) RunID() string {
	return a.runID
}
