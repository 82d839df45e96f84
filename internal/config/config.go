// Package config loads the optional enemgap.yaml project file. The file
// holds non-secret run settings: connection defaults, batch size, output
// location, and source file behavior. Secrets (DB_PASS and friends) only
// ever come from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConnectionDefaults provides fallback values for the DB_* environment
// variables. There is deliberately no password field.
type ConnectionDefaults struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SourceDefaults provides fallback values for the source file settings.
type SourceDefaults struct {
	ParticipantsFile   string `yaml:"participants_file"`
	ResultsFile        string `yaml:"results_file"`
	ParticipantsTable  string `yaml:"participants_table"`
	ResultsTable       string `yaml:"results_table"`
	RegistrationColumn string `yaml:"registration_column"`
	DetectEncoding     bool   `yaml:"detect_encoding"`
}

// ProjectConfig is the parsed enemgap.yaml.
type ProjectConfig struct {
	Connection ConnectionDefaults `yaml:"connection"`
	Source     SourceDefaults     `yaml:"source"`
	BatchSize  int                `yaml:"batch_size"`
	OutputRoot string             `yaml:"output_root"`
	SkipCharts bool               `yaml:"skip_charts"`
	AppName    string             `yaml:"app_name"`
	Timeout    string             `yaml:"timeout"`
}

const ConfigFileName = "enemgap.yaml"

// Load reads dir/enemgap.yaml. A missing file yields ErrConfigNotFound,
// which callers treat as "no project file" rather than a failure.
func Load(dir string) (*ProjectConfig, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}
	if cfg.BatchSize < 0 {
		return nil, fmt.Errorf("%s: batch_size cannot be negative", ConfigFileName)
	}
	return &cfg, nil
}
