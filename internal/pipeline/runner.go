package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brmicrodata/enemgap/internal/checksum"
	"github.com/brmicrodata/enemgap/internal/report"
	"github.com/brmicrodata/enemgap/internal/store"
	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

type connectFunc func(ctx context.Context, config enemgap.PipelineConfig) (enemgap.DBConnection, func(), error)

// Runner executes the pipeline end to end: validate, connect, ensure the
// source tables are loaded, extract the analysis table, and run every
// reporter into a fresh timestamped output directory. The manifest is
// written by the Runner itself, after all reporters, because it lists
// their files.
//
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
// Create separate instances for concurrent runs.
type Runner struct {
	connectorFactory func(*enemgap.ConnectionConfig) (enemgap.Connector, error)
	orchestrator     enemgap.LoadOrchestrator
	extractor        enemgap.Extractor
	reporters        []enemgap.Reporter
	logger           enemgap.Logger

	connect    connectFunc
	now        func() time.Time
	newRunID   func() string
	digestFile func(path string) (enemgap.SourceDigest, error)
}

// NewRunner creates a Runner with all dependencies injected. The reporters
// run in slice order; the caller decides which artifacts a run produces.
//
// Panics if any dependency other than the reporter list is nil (programmer
// error). An empty reporter list is valid and yields a manifest-only run.
func NewRunner(
	connectorFactory func(*enemgap.ConnectionConfig) (enemgap.Connector, error),
	orchestrator enemgap.LoadOrchestrator,
	extractor enemgap.Extractor,
	reporters []enemgap.Reporter,
	logger enemgap.Logger,
) *Runner {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if orchestrator == nil {
		panic("orchestrator cannot be nil")
	}
	if extractor == nil {
		panic("extractor cannot be nil")
	}
	for _, r := range reporters {
		if r == nil {
			panic("reporter cannot be nil")
		}
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	r := &Runner{
		connectorFactory: connectorFactory,
		orchestrator:     orchestrator,
		extractor:        extractor,
		reporters:        reporters,
		logger:           logger,
		now:              time.Now,
		newRunID:         uuid.NewString,
		digestFile:       digestSourceFile,
	}
	r.connect = r.defaultConnect
	return r
}

// Run executes one pipeline run. The returned RunSummary is valid as far
// as the run got, even on error. Every failure aborts the run; there are
// no retries.
func (r *Runner) Run(ctx context.Context, config enemgap.PipelineConfig) (enemgap.RunSummary, error) {
	summary := enemgap.RunSummary{
		RunID:     r.newRunID(),
		StartedAt: r.now(),
	}

	if err := config.Validate(); err != nil {
		return summary, fmt.Errorf("invalid configuration: %w", err)
	}
	r.logger.Verbose("Starting run %s", summary.RunID)

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	conn, cleanup, err := r.connect(ctx, config)
	if err != nil {
		return summary, err
	}
	defer cleanup()

	loads, err := r.orchestrator.EnsureLoaded(ctx, conn, config)
	if err != nil {
		return summary, err
	}
	summary.LoadsSkipped = loads.Skipped()

	summary.SourceFiles, err = r.sourceDigests(config, loads)
	if err != nil {
		return summary, err
	}

	table, err := r.extractor.Extract(ctx, conn, config)
	if err != nil {
		return summary, err
	}
	summary.RowsExtracted = table.Extracted
	summary.RowsRetained = table.Len()

	outputDir, err := report.CreateRunDir(config.OutputRoot, summary.StartedAt)
	if err != nil {
		return summary, err
	}
	summary.OutputDir = outputDir

	for _, reporter := range r.reporters {
		files, err := reporter.Report(ctx, table, outputDir)
		if err != nil {
			return summary, err
		}
		summary.OutputFiles = append(summary.OutputFiles, files...)
	}

	summary.FinishedAt = r.now()
	manifestName, err := report.WriteManifest(summary)
	if err != nil {
		return summary, err
	}
	summary.OutputFiles = append(summary.OutputFiles, manifestName)

	r.logger.Info("✓ Run completed in %.2fs", summary.Duration().Seconds())
	return summary, nil
}

// sourceDigests fingerprints the source files the loaders read, for the
// manifest. The result loader reads both files (it takes the registration
// column from the participant file), so a result load fingerprints both.
// Skipped loads read nothing and are not fingerprinted.
func (r *Runner) sourceDigests(config enemgap.PipelineConfig, loads enemgap.LoadReport) ([]enemgap.SourceDigest, error) {
	var digests []enemgap.SourceDigest

	if loads.ParticipantsLoaded || loads.ResultsLoaded {
		d, err := r.digestFile(config.ParticipantsFile)
		if err != nil {
			return nil, err
		}
		digests = append(digests, d)
	}
	if loads.ResultsLoaded {
		d, err := r.digestFile(config.ResultsFile)
		if err != nil {
			return nil, err
		}
		digests = append(digests, d)
	}
	return digests, nil
}

func digestSourceFile(path string) (enemgap.SourceDigest, error) {
	sum, size, err := checksum.New().File(path)
	if err != nil {
		return enemgap.SourceDigest{}, fmt.Errorf("failed to fingerprint source file: %w", err)
	}
	return enemgap.SourceDigest{Path: path, SHA256: sum, Bytes: size}, nil
}

// defaultConnect parses the connection string, builds the matching
// connector, and opens the pool. The server version is queried once as a
// reachability check.
func (r *Runner) defaultConnect(ctx context.Context, config enemgap.PipelineConfig) (enemgap.DBConnection, func(), error) {
	connConfig, err := store.ParseConnectionString(config.ConnectionString)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if connConfig.AppName == "" {
		connConfig.AppName = "enemgap"
	}

	// Apply auth method and cloud credentials from the pipeline config
	connConfig.AuthMethod = config.AuthMethod
	connConfig.AzureTenantID = config.AzureTenantID
	connConfig.AzureClientID = config.AzureClientID
	connConfig.AzureClientSecret = config.AzureClientSecret
	connConfig.AWSRegion = config.AWSRegion
	connConfig.GoogleInstance = config.GoogleInstance

	connector, err := r.connectorFactory(connConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	version, err := store.ServerVersion(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("%w: %w", enemgap.ErrConnectionFailed, err)
	}
	r.logger.Verbose("Connected: %s", version)

	return pool, func() { pool.Close() }, nil
}
