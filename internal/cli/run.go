package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/brmicrodata/enemgap/internal/analysis"
	"github.com/brmicrodata/enemgap/internal/config"
	"github.com/brmicrodata/enemgap/internal/etl"
	"github.com/brmicrodata/enemgap/internal/logging"
	"github.com/brmicrodata/enemgap/internal/pipeline"
	"github.com/brmicrodata/enemgap/internal/report"
	"github.com/brmicrodata/enemgap/internal/sourcedata"
	"github.com/brmicrodata/enemgap/internal/store"
	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: load, extract, report",
	Long: `Run executes the whole pipeline in one shot:

1. Connects to PostgreSQL using the configured authentication method
2. Loads the participant and result CSVs into their tables. This happens on
   the first run only: a table that already exists is never reloaded, so a
   re-run against a loaded store goes straight to the analysis. Drop the
   tables to force a reload.
3. Extracts participants in the two lowest income brackets ("No income" and
   "Up to ~1.3k") that have a complete set of scores
4. Writes the analysis CSV, descriptive statistics, charts, and run manifest
   into a timestamped output directory

Configuration:
  Required values come from the environment (a .env file in the working
  directory is honored):
    DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASS
    PARTICIPANTS_FILE, RESULTS_FILE, PARTICIPANTS_TABLE, RESULTS_TABLE
  DATABASE_URL replaces the DB_* variables when set. Non-secret values may
  instead come from enemgap.yaml in the working directory; DB_PASS only
  ever comes from the environment, and may be omitted when a cloud token
  flag (--aws-iam, --azure, --google-instance) provides the credential.

Examples:
  # Configuration from .env in the working directory
  enemgap run

  # Larger batches, custom output location
  enemgap run --batch-size 100000 --output ./reports

  # Skip the charts, keep the CSVs
  enemgap run --skip-charts

  # Managed Postgres with IAM auth instead of DB_PASS
  enemgap run --aws-iam --aws-region us-east-1`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

type runFlagValues struct {
	envFile        string
	output         string
	batchSize      int
	detectEncoding bool
	skipCharts     bool
	timeout        time.Duration
	awsIAM         bool
	awsRegion      string
	azure          bool
	azureTenantID  string
	azureClientID  string
	googleInstance string
}

var runFlags runFlagValues

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.envFile, "env-file", "",
		"Load environment variables from this file instead of ./.env\n"+
			"Example: --env-file prod.env")
	runCmd.Flags().StringVarP(&runFlags.output, "output", "o", "",
		"Directory under which the timestamped run directory is created\n"+
			"(default: working directory, or output_root from enemgap.yaml)")
	runCmd.Flags().IntVar(&runFlags.batchSize, "batch-size", 0,
		fmt.Sprintf("Rows per load batch; any value >= 1 produces identical tables\n"+
			"(default: %d, or batch_size from enemgap.yaml)", enemgap.DefaultBatchSize))
	runCmd.Flags().BoolVar(&runFlags.detectEncoding, "detect-encoding", false,
		"Detect the source file charset from a leading sample instead of\n"+
			"assuming ISO-8859-1 (falls back to ISO-8859-1 on low confidence)")
	runCmd.Flags().BoolVar(&runFlags.skipCharts, "skip-charts", false,
		"Skip chart rendering; the CSV and statistics files are still written")
	runCmd.Flags().DurationVar(&runFlags.timeout, "timeout", 0,
		"Abort the whole run after this duration (default: no timeout)\n"+
			"Examples: 30m, 2h")

	// Cloud authentication flags, mutually exclusive
	runCmd.Flags().BoolVar(&runFlags.awsIAM, "aws-iam", false,
		"Authenticate with an AWS RDS IAM token instead of DB_PASS")
	runCmd.Flags().StringVar(&runFlags.awsRegion, "aws-region", "",
		"AWS region for RDS IAM token signing (overrides the ambient region)")
	runCmd.Flags().BoolVar(&runFlags.azure, "azure", false,
		"Authenticate with an Azure Entra ID token instead of DB_PASS\n"+
			"Uses DefaultAzureCredential chain (Managed Identity, Azure CLI, etc.)")
	runCmd.Flags().StringVar(&runFlags.azureTenantID, "azure-tenant-id", "",
		"Azure AD tenant/directory ID (overrides $AZURE_TENANT_ID)")
	runCmd.Flags().StringVar(&runFlags.azureClientID, "azure-client-id", "",
		"Azure AD application/client ID (overrides $AZURE_CLIENT_ID)")
	runCmd.Flags().StringVar(&runFlags.googleInstance, "google-instance", "",
		"Google Cloud SQL instance connection name (project:region:instance);\n"+
			"enables Cloud SQL IAM authentication")
}

// resolveAuthMethod maps the cloud flags to an AuthMethod. At most one
// cloud flag may be set.
func resolveAuthMethod() (enemgap.AuthMethod, error) {
	var enabled []string
	method := enemgap.AuthMethodStandard

	if runFlags.awsIAM {
		enabled = append(enabled, "--aws-iam")
		method = enemgap.AuthMethodAWSIAM
	}
	if runFlags.azure {
		enabled = append(enabled, "--azure")
		method = enemgap.AuthMethodAzureEntraID
	}
	if runFlags.googleInstance != "" {
		enabled = append(enabled, "--google-instance")
		method = enemgap.AuthMethodGoogleIAM
	}

	if len(enabled) > 1 {
		return 0, fmt.Errorf("%w: %s are mutually exclusive; pick one authentication method",
			enemgap.ErrInvalidConfig, strings.Join(enabled, " and "))
	}
	return method, nil
}

// envOr returns the environment value for key, or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// buildPipelineConfig assembles the PipelineConfig from the environment,
// the optional enemgap.yaml, and the run flags (flags win). It reports
// every missing required value in one error rather than the first one.
func buildPipelineConfig(cmd *cobra.Command, verbose bool) (enemgap.PipelineConfig, error) {
	if runFlags.envFile != "" {
		if err := godotenv.Load(runFlags.envFile); err != nil {
			return enemgap.PipelineConfig{}, fmt.Errorf("%w: loading env file %q: %v",
				enemgap.ErrInvalidConfig, runFlags.envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	projectCfg, err := config.Load(".")
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return enemgap.PipelineConfig{}, fmt.Errorf("%w: %v", enemgap.ErrInvalidConfig, err)
		}
		projectCfg = &config.ProjectConfig{}
	} else if verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] Loaded %s\n", config.ConfigFileName)
	}

	// Cloud flags are mutually exclusive; reject conflicts before resolving.
	if _, err := resolveAuthMethod(); err != nil {
		return enemgap.PipelineConfig{}, err
	}

	// Source values: environment first, enemgap.yaml as the fallback.
	var missingSource []string
	resolve := func(key, fallback string) string {
		v := envOr(key, fallback)
		if v == "" {
			missingSource = append(missingSource, key)
		}
		return v
	}

	participantsFile := resolve("PARTICIPANTS_FILE", projectCfg.Source.ParticipantsFile)
	resultsFile := resolve("RESULTS_FILE", projectCfg.Source.ResultsFile)
	participantsTable := resolve("PARTICIPANTS_TABLE", projectCfg.Source.ParticipantsTable)
	resultsTable := resolve("RESULTS_TABLE", projectCfg.Source.ResultsTable)

	cloudFlags := &store.CloudFlags{
		AWSIAM:         runFlags.awsIAM,
		AWSRegion:      runFlags.awsRegion,
		Azure:          runFlags.azure,
		AzureTenantID:  runFlags.azureTenantID,
		AzureClientID:  runFlags.azureClientID,
		GoogleInstance: runFlags.googleInstance,
	}

	connConfig, err := store.ResolveConnectionConfig(cloudFlags, store.LoadFromEnvironment(), projectCfg)
	if err != nil {
		if len(missingSource) > 0 {
			return enemgap.PipelineConfig{}, fmt.Errorf("%w; also missing: %s",
				err, strings.Join(missingSource, ", "))
		}
		return enemgap.PipelineConfig{}, err
	}

	if len(missingSource) > 0 {
		return enemgap.PipelineConfig{}, fmt.Errorf(
			"%w: missing required configuration: %s\n\n"+
				"Set these in the environment or a .env file; non-secret values may\n"+
				"also live in %s.",
			enemgap.ErrInvalidConfig, strings.Join(missingSource, ", "), config.ConfigFileName)
	}

	// Optional values: flag > enemgap.yaml > default
	batchSize := enemgap.DefaultBatchSize
	if projectCfg.BatchSize > 0 {
		batchSize = projectCfg.BatchSize
	}
	if cmd.Flags().Changed("batch-size") {
		batchSize = runFlags.batchSize
	}

	output := projectCfg.OutputRoot
	if cmd.Flags().Changed("output") {
		output = runFlags.output
	}

	detectEncoding := projectCfg.Source.DetectEncoding
	if cmd.Flags().Changed("detect-encoding") {
		detectEncoding = runFlags.detectEncoding
	}

	skipCharts := projectCfg.SkipCharts
	if cmd.Flags().Changed("skip-charts") {
		skipCharts = runFlags.skipCharts
	}

	timeout := runFlags.timeout
	if projectCfg.Timeout != "" && !cmd.Flags().Changed("timeout") {
		parsed, parseErr := time.ParseDuration(projectCfg.Timeout)
		if parseErr != nil {
			return enemgap.PipelineConfig{}, fmt.Errorf("%w: invalid timeout in %s: %v",
				enemgap.ErrInvalidConfig, config.ConfigFileName, parseErr)
		}
		timeout = parsed
	}

	registrationColumn := projectCfg.Source.RegistrationColumn
	if registrationColumn == "" {
		registrationColumn = enemgap.DefaultRegistrationColumn
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] Connection resolved:\n")
		fmt.Fprintf(os.Stderr, "  Host: %s\n", connConfig.Host)
		fmt.Fprintf(os.Stderr, "  Port: %d\n", connConfig.Port)
		fmt.Fprintf(os.Stderr, "  User: %s\n", connConfig.Username)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", connConfig.Database)
		fmt.Fprintf(os.Stderr, "  Auth Method: %s\n", connConfig.AuthMethod)
	}

	return enemgap.PipelineConfig{
		ParticipantsFile:   participantsFile,
		ResultsFile:        resultsFile,
		ParticipantsTable:  participantsTable,
		ResultsTable:       resultsTable,
		RegistrationColumn: registrationColumn,
		ConnectionString:   store.BuildConnectionString(connConfig),
		BatchSize:          batchSize,
		OutputRoot:         output,
		DetectEncoding:     detectEncoding,
		SkipCharts:         skipCharts,
		Timeout:            timeout,
		Verbose:            verbose,
		AuthMethod:         connConfig.AuthMethod,
		AzureTenantID:      connConfig.AzureTenantID,
		AzureClientID:      connConfig.AzureClientID,
		AzureClientSecret:  connConfig.AzureClientSecret,
		AWSRegion:          connConfig.AWSRegion,
		GoogleInstance:     connConfig.GoogleInstance,
	}, nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	cfg, err := buildPipelineConfig(cmd, verbose)
	if err != nil {
		return err
	}

	console := report.NewConsole()
	v, _, _ := resolveVersionInfo()
	console.Banner(v)

	logger := logging.NewConsoleLogger(verbose)
	opener := sourcedata.NewOpener(cfg.DetectEncoding, logger)
	orchestrator := etl.NewOrchestrator(
		store.NewCatalog(),
		etl.NewBulkLoadService(opener, logger, cfg.BatchSize),
		etl.NewJoinLoadService(opener, logger, cfg.BatchSize, cfg.RegistrationColumn),
		logger,
	)

	reporters := []enemgap.Reporter{
		report.NewAnalysisCSVReporter(logger),
		report.NewStatsReporter(logger),
	}
	if !cfg.SkipCharts {
		reporters = append(reporters, report.NewChartReporter(logger))
	}

	runner := pipeline.NewRunner(store.NewConnector, orchestrator,
		analysis.NewExtractService(logger), reporters, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var interrupted atomic.Bool
	go func() {
		select {
		case <-sigChan:
			interrupted.Store(true)
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling run...")
			cancel()
		case <-ctx.Done():
		}
	}()

	summary, err := runner.Run(ctx, cfg)
	if err != nil {
		if interrupted.Load() {
			return fmt.Errorf("%w: %v", enemgap.ErrInterrupted, err)
		}
		return err
	}

	console.Summary(summary)
	return nil
}
