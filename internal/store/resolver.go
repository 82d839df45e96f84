package store

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/brmicrodata/enemgap/internal/config"
	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

// CloudFlags represents cloud authentication CLI flags.
// Secrets are never accepted as flags; AZURE_CLIENT_SECRET comes from the
// environment only.
type CloudFlags struct {
	AWSIAM         bool   // --aws-iam: use AWS RDS IAM token authentication
	AWSRegion      string // --aws-region: overrides $AWS_REGION
	Azure          bool   // --azure: use Azure Entra ID token authentication
	AzureTenantID  string // --azure-tenant-id: overrides $AZURE_TENANT_ID
	AzureClientID  string // --azure-client-id: overrides $AZURE_CLIENT_ID
	GoogleInstance string // --google-instance: Cloud SQL instance (project:region:instance)
}

// EnvVars represents the environment surface the pipeline reads its
// database settings from. DB_* names follow the original deployment
// convention; DATABASE_URL is accepted as a full-string alternative.
type EnvVars struct {
	DBHost      string // DB_HOST: PostgreSQL server host
	DBPort      string // DB_PORT: PostgreSQL server port
	DBUser      string // DB_USER: PostgreSQL username
	DBPass      string // DB_PASS: PostgreSQL password
	DBName      string // DB_NAME: target database name
	DBSSLMode   string // DB_SSLMODE: SSL mode (optional, default "prefer")
	DatabaseURL string // DATABASE_URL: full connection string (overrides DB_*)

	// Cloud provider variables (SDK-standard names)
	AzureTenantID     string // AZURE_TENANT_ID
	AzureClientID     string // AZURE_CLIENT_ID
	AzureClientSecret string // AZURE_CLIENT_SECRET
	AWSRegion         string // AWS_REGION
}

// LoadFromEnvironment reads the database and cloud provider environment
// variables. Callers load .env files (godotenv) before calling this.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		DBHost:            os.Getenv("DB_HOST"),
		DBPort:            os.Getenv("DB_PORT"),
		DBUser:            os.Getenv("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"),
		DBName:            os.Getenv("DB_NAME"),
		DBSSLMode:         os.Getenv("DB_SSLMODE"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		AzureTenantID:     os.Getenv("AZURE_TENANT_ID"),
		AzureClientID:     os.Getenv("AZURE_CLIENT_ID"),
		AzureClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
		AWSRegion:         os.Getenv("AWS_REGION"),
	}
}

// ResolveConnectionConfig builds the connection configuration using this
// precedence:
//
//  1. DATABASE_URL environment variable - if set, parsed and used directly
//  2. DB_* environment variables, with the project file's connection
//     section filling gaps (password never comes from the project file)
//
// Every missing required variable is reported in one descriptive error so
// the user can fix the environment in a single pass.
//
// Cloud authentication: explicit flags select the auth method. Token-based
// methods make DB_PASS optional (the token becomes the password); Google
// Cloud SQL also makes DB_HOST/DB_PORT optional (the connector dials the
// instance directly).
func ResolveConnectionConfig(flags *CloudFlags, envVars *EnvVars, projectConfig *config.ProjectConfig) (*enemgap.ConnectionConfig, error) {
	if flags == nil {
		flags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	var cfg *enemgap.ConnectionConfig
	var err error

	if envVars.DatabaseURL != "" {
		cfg, err = ParseConnectionString(envVars.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w: %w", err, enemgap.ErrInvalidConfig)
		}
	} else {
		cfg, err = resolveFromEnv(flags, envVars, projectConfig)
		if err != nil {
			return nil, err
		}
	}

	applyCloudAuth(cfg, flags, envVars)

	if cfg.AppName == "" {
		cfg.AppName = appName(projectConfig)
	}

	return cfg, nil
}

func appName(projectConfig *config.ProjectConfig) string {
	if projectConfig != nil && projectConfig.AppName != "" {
		return projectConfig.AppName
	}
	return "enemgap"
}

// resolveFromEnv builds ConnectionConfig from DB_* variables with the
// project file as fallback for non-secret values.
func resolveFromEnv(flags *CloudFlags, envVars *EnvVars, projectConfig *config.ProjectConfig) (*enemgap.ConnectionConfig, error) {
	cfg := &enemgap.ConnectionConfig{
		AuthMethod:       enemgap.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	var pc config.ConnectionDefaults
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	cfg.Host = envVars.DBHost
	if cfg.Host == "" {
		cfg.Host = pc.Host
	}

	if envVars.DBPort != "" {
		port, err := strconv.Atoi(envVars.DBPort)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_PORT value %q: must be an integer: %w", envVars.DBPort, enemgap.ErrInvalidConfig)
		}
		cfg.Port = port
	} else if pc.Port != 0 {
		cfg.Port = pc.Port
	}

	cfg.Username = envVars.DBUser
	if cfg.Username == "" {
		cfg.Username = pc.Username
	}

	cfg.Password = envVars.DBPass

	cfg.Database = envVars.DBName
	if cfg.Database == "" {
		cfg.Database = pc.Database
	}

	cfg.SSLMode = envVars.DBSSLMode
	if cfg.SSLMode == "" {
		cfg.SSLMode = pc.SSLMode
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	if missing := missingRequiredVars(cfg, flags); len(missing) > 0 {
		return nil, fmt.Errorf(
			"missing required environment variables: %s (set them in the environment or a .env file): %w",
			strings.Join(missing, ", "), enemgap.ErrInvalidConfig)
	}

	return cfg, nil
}

// missingRequiredVars lists the DB_* variables the selected auth method
// still needs. Token-based methods supply the password themselves; the
// Cloud SQL connector needs no host or port.
func missingRequiredVars(cfg *enemgap.ConnectionConfig, flags *CloudFlags) []string {
	googleAuth := flags.GoogleInstance != ""
	tokenAuth := googleAuth || flags.AWSIAM || flags.Azure ||
		flags.AzureTenantID != "" || flags.AzureClientID != ""

	var missing []string
	if cfg.Host == "" && !googleAuth {
		missing = append(missing, "DB_HOST")
	}
	if cfg.Port == 0 && !googleAuth {
		missing = append(missing, "DB_PORT")
	}
	if cfg.Username == "" {
		missing = append(missing, "DB_USER")
	}
	if cfg.Password == "" && !tokenAuth {
		missing = append(missing, "DB_PASS")
	}
	if cfg.Database == "" {
		missing = append(missing, "DB_NAME")
	}
	return missing
}

// applyCloudAuth selects the auth method from the cloud flags and attaches
// provider credentials. Flags take precedence over environment variables.
func applyCloudAuth(cfg *enemgap.ConnectionConfig, flags *CloudFlags, envVars *EnvVars) {
	switch {
	case flags.GoogleInstance != "":
		cfg.AuthMethod = enemgap.AuthMethodGoogleIAM
		cfg.GoogleInstance = flags.GoogleInstance

	case flags.AWSIAM:
		cfg.AuthMethod = enemgap.AuthMethodAWSIAM
		cfg.AWSRegion = flags.AWSRegion
		if cfg.AWSRegion == "" {
			cfg.AWSRegion = envVars.AWSRegion
		}

	case flags.Azure || flags.AzureTenantID != "" || flags.AzureClientID != "":
		cfg.AuthMethod = enemgap.AuthMethodAzureEntraID

		cfg.AzureTenantID = flags.AzureTenantID
		if cfg.AzureTenantID == "" {
			cfg.AzureTenantID = envVars.AzureTenantID
		}

		cfg.AzureClientID = flags.AzureClientID
		if cfg.AzureClientID == "" {
			cfg.AzureClientID = envVars.AzureClientID
		}

		// AZURE_CLIENT_SECRET has no flag equivalent.
		cfg.AzureClientSecret = envVars.AzureClientSecret
	}
}
