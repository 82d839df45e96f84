package enemgap

import (
	"errors"
	"fmt"
	"time"
)

// PipelineConfig contains all parameters needed for one pipeline run.
// It is built once at startup (env > .env > project file > flags) and
// threaded explicitly through every component; nothing below the CLI
// reads the environment.
type PipelineConfig struct {
	// ParticipantsFile is the path to the participant microdata CSV
	ParticipantsFile string

	// ResultsFile is the path to the result microdata CSV
	ResultsFile string

	// ParticipantsTable is the target table for participant rows
	ParticipantsTable string

	// ResultsTable is the target table for result rows (with the
	// registration number column attached)
	ResultsTable string

	// RegistrationColumn is the header name of the registration number
	// column in the participant file. Defaults to DefaultRegistrationColumn.
	RegistrationColumn string

	// ConnectionString is the PostgreSQL connection string (URI or key=value)
	// resolved from the DB_* environment variables
	ConnectionString string

	// BatchSize is the number of rows per load batch. Defaults to
	// DefaultBatchSize. Any value >= 1 produces identical table contents.
	BatchSize int

	// OutputRoot is the directory under which the timestamped run
	// directory is created. Defaults to the working directory.
	OutputRoot string

	// DetectEncoding enables charset detection on a leading sample of each
	// source file, falling back to ISO-8859-1 on low confidence.
	DetectEncoding bool

	// SkipCharts disables chart rendering (CSV and stats still written)
	SkipCharts bool

	// Timeout is the global timeout for the entire run (0 = none)
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion overrides the ambient AWS region for RDS IAM token signing
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name
	// ("project:region:instance", used when AuthMethod is AuthMethodGoogleIAM)
	GoogleInstance string
}

// Validate checks if the PipelineConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *PipelineConfig) Validate() error {
	var errs []error

	if c.ParticipantsFile == "" {
		errs = append(errs, fmt.Errorf("ParticipantsFile is required: %w", ErrInvalidConfig))
	}

	if c.ResultsFile == "" {
		errs = append(errs, fmt.Errorf("ResultsFile is required: %w", ErrInvalidConfig))
	}

	if c.ParticipantsTable == "" {
		errs = append(errs, fmt.Errorf("ParticipantsTable is required: %w", ErrInvalidConfig))
	}

	if c.ResultsTable == "" {
		errs = append(errs, fmt.Errorf("ResultsTable is required: %w", ErrInvalidConfig))
	}

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("BatchSize must be at least 1, got %d: %w", c.BatchSize, ErrInvalidConfig))
	}

	if c.RegistrationColumn == "" {
		errs = append(errs, fmt.Errorf("RegistrationColumn is required: %w", ErrInvalidConfig))
	}

	// Validate timeout if set
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	if !c.AuthMethod.IsValid() {
		errs = append(errs, fmt.Errorf("unknown auth method %d: %w", c.AuthMethod, ErrInvalidConfig))
	}

	if c.AuthMethod == AuthMethodGoogleIAM && c.GoogleInstance == "" {
		errs = append(errs, fmt.Errorf("GoogleInstance is required for Google IAM auth: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion overrides the ambient region for RDS IAM token signing
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name for the
	// Cloud SQL Go connector
	GoogleInstance string
}

// DeepCopy returns an independent copy of the config. Token-based
// connectors derive per-connection configs with the password replaced;
// the copy keeps the AdditionalParams map from being shared.
func (c ConnectionConfig) DeepCopy() ConnectionConfig {
	cp := c
	if c.AdditionalParams != nil {
		cp.AdditionalParams = make(map[string]string, len(c.AdditionalParams))
		for k, v := range c.AdditionalParams {
			cp.AdditionalParams[k] = v
		}
	}
	return cp
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// AnalysisRow is one joined, filtered, and enriched observation: a
// participant in income bracket A or B with a complete set of scores.
//
// Invariants guaranteed by the extractor:
//   - All five scores are non-null.
//   - IncomeCode is "A" or "B" and IncomeGroup is the matching label.
//   - MeanObjectiveScore is the mean of the four non-essay scores.
type AnalysisRow struct {
	// IncomeCode is the raw Q006 questionnaire bracket code
	IncomeCode string

	// IncomeGroup is the derived label: IncomeGroupNone or IncomeGroupUpTo1300
	IncomeGroup string

	// Sex is the TP_SEXO code ("F" or "M")
	Sex string

	// RaceCode is the TP_COR_RACA IBGE category code (0-5)
	RaceCode int64

	// State is the SG_UF_PROVA two-letter exam state code
	State string

	// Subject scores (NU_NOTA_CN, CH, LC, MT, REDACAO)
	ScienceScore    float64
	HumanitiesScore float64
	LanguageScore   float64
	MathScore       float64
	EssayScore      float64

	// MeanObjectiveScore is the mean of the four objective (non-essay) scores
	MeanObjectiveScore float64
}

// SourceDigest identifies a source file a run ingested: its path, the
// SHA-256 of its content, and its size in bytes.
type SourceDigest struct {
	Path   string
	SHA256 string
	Bytes  int64
}

// RunSummary captures what a completed run produced, for the manifest and
// the console summary.
type RunSummary struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	RowsExtracted int
	RowsRetained  int
	OutputDir     string
	OutputFiles   []string
	LoadsSkipped  bool

	// SourceFiles fingerprints the files the loaders actually read this
	// run. Empty when every load was skipped.
	SourceFiles []SourceDigest
}

// Duration is the wall-clock time the run took.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
