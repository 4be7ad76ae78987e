// File: cmd/runtime.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fairgraph/api/schemas"
	"github.com/xkilldash9x/fairgraph/internal/config"
	"github.com/xkilldash9x/fairgraph/internal/observability"
	"github.com/xkilldash9x/fairgraph/internal/penman"
	"github.com/xkilldash9x/fairgraph/internal/reporting"
	"github.com/xkilldash9x/fairgraph/internal/store"
)

// storeProvider defines an interface for components that can create a data store
// (schemas.Store). This abstraction is crucial for testing, as it allows for
// the injection of a mock store instead of a live database connection.
type storeProvider interface {
	// Create initializes and returns a schemas.Store, a cleanup function to release
	// resources, and an error if the creation fails.
	Create(ctx context.Context, cfg config.Interface) (schemas.Store, func(), error)
}

// defaultStoreProvider is the concrete implementation of storeProvider used in
// production. It establishes a real connection to the PostgreSQL database.
type defaultStoreProvider struct{}

// NewStoreProvider is a factory function that creates a new defaultStoreProvider.
func NewStoreProvider() storeProvider {
	return &defaultStoreProvider{}
}

// Create connects to the PostgreSQL database, makes sure the tables exist and
// returns the store along with a cleanup function closing the pool.
func (p *defaultStoreProvider) Create(ctx context.Context, cfg config.Interface) (schemas.Store, func(), error) {
	logger := observability.GetLogger()

	pool, err := pgxpool.New(ctx, cfg.Database().URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storeService, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to initialize store service: %w", err)
	}
	if err := storeService.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		logger.Debug("Database connection pool closed.")
	}
	return storeService, cleanup, nil
}

// expandPath resolves a leading ~ in paths given on the command line.
func expandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path %q: %w", path, err)
	}
	return expanded, nil
}

// readCorpus expands the path and loads every graph block from it.
func readCorpus(logger *zap.Logger, input string) (string, []string, error) {
	path, err := expandPath(input)
	if err != nil {
		return "", nil, err
	}
	blocks, err := penman.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	logger.Info(fmt.Sprintf("Found %d AMR blocks", len(blocks)), zap.String("path", path))
	return path, blocks, nil
}

// newMetrics returns a collector when a textfile export is configured. A nil
// collector records nothing.
func newMetrics(cfg config.Interface) *observability.Metrics {
	if cfg.Metrics().Textfile == "" {
		return nil
	}
	return observability.NewMetrics()
}

// flushMetrics writes the collected metrics to the configured textfile.
func flushMetrics(logger *zap.Logger, cfg config.Interface, metrics *observability.Metrics) error {
	if metrics == nil {
		return nil
	}
	path, err := expandPath(cfg.Metrics().Textfile)
	if err != nil {
		return err
	}
	if err := metrics.WriteTextfile(path); err != nil {
		return err
	}
	logger.Debug("Metrics written", zap.String("path", path))
	return nil
}

// persistRun records a finished run when a database is configured. save
// stores the run's payload under the generated run id.
func persistRun(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	provider storeProvider,
	run schemas.Run,
	save func(ctx context.Context, s schemas.Store, runID string) error,
) error {
	if cfg.Database().URL == "" || provider == nil {
		return nil
	}

	storeService, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	// Ensure cleanup is not nil before deferring (safe for mocks that might not provide a cleanup).
	if cleanup != nil {
		defer cleanup()
	}

	run.ID = uuid.NewString()
	run.CreatedAt = time.Now()
	if err := storeService.SaveRun(ctx, run); err != nil {
		return err
	}
	if save != nil {
		if err := save(ctx, storeService, run.ID); err != nil {
			return err
		}
	}
	logger.Info("Run persisted", zap.String("run_id", run.ID), zap.String("command", run.Command))
	return nil
}

// writeReport renders one result set with the configured reporter.
func writeReport(out io.Writer, cfg config.Interface, outputPath string, write func(reporting.Reporter) error) (err error) {
	if outputPath != "" && outputPath != "-" && outputPath != "stdout" {
		if outputPath, err = expandPath(outputPath); err != nil {
			return err
		}
	}
	reporter, err := reporting.New(cfg.Output().Format, outputPath, reporting.Options{
		AMRWidth: cfg.Output().AMRWidth,
		Stdout:   out,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}
	// A failed write skips Close so no partial file replaces the target.
	if err := write(reporter); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := reporter.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}
