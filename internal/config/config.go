// Package config loads runtime configuration from defaults, an optional
// YAML file and FORESTPANEL_* environment variables, in that order of
// precedence (environment wins).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const envPrefix = "FORESTPANEL"

// Config is the full runtime configuration for the panel builder and the
// regression report tool.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Paths     PathsConfig     `yaml:"paths"`
	Providers ProvidersConfig `yaml:"providers"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// LoggingConfig controls the slog setup.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"LOG_OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"LOG_FILE"`
}

// PathsConfig names the output locations. File names are relative to
// OutputDir.
type PathsConfig struct {
	OutputDir   string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LevelCSV    string `yaml:"level_csv" envconfig:"LEVEL_CSV" validate:"required"`
	DeltaCSV    string `yaml:"delta_csv" envconfig:"DELTA_CSV" validate:"required"`
	CodebookCSV string `yaml:"codebook_csv" envconfig:"CODEBOOK_CSV" validate:"required"`
	ReportJSON  string `yaml:"report_json" envconfig:"REPORT_JSON" validate:"required"`
	Workbook    string `yaml:"workbook" envconfig:"WORKBOOK" validate:"required"`
}

// ProvidersConfig holds the per-provider client settings.
type ProvidersConfig struct {
	Cepalstat CepalstatConfig `yaml:"cepalstat"`
	WorldBank WorldBankConfig `yaml:"worldbank"`
	Faostat   FaostatConfig   `yaml:"faostat"`
}

// CepalstatConfig configures the CEPALSTAT data-cube client.
type CepalstatConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"CEPALSTAT_BASE_URL" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" envconfig:"CEPALSTAT_TIMEOUT"`
	Retries int           `yaml:"retries" envconfig:"CEPALSTAT_RETRIES" validate:"min=1,max=10"`
}

// WorldBankConfig configures the World Bank indicators client.
type WorldBankConfig struct {
	BaseURL           string        `yaml:"base_url" envconfig:"WORLDBANK_BASE_URL" validate:"required,url"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"WORLDBANK_TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"WORLDBANK_RPS" validate:"gt=0"`
}

// FaostatConfig configures the FAOSTAT client. ArchiveDir holds the bulk
// zip downloads; when a domain's archive is present it is preferred over
// the API.
type FaostatConfig struct {
	BaseURL    string        `yaml:"base_url" envconfig:"FAOSTAT_BASE_URL" validate:"required,url"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"FAOSTAT_TIMEOUT"`
	ArchiveDir string        `yaml:"archive_dir" envconfig:"FAOSTAT_ARCHIVE_DIR"`
}

// PipelineConfig tunes the runner.
type PipelineConfig struct {
	Concurrency int `yaml:"concurrency" envconfig:"PIPELINE_CONCURRENCY" validate:"min=1,max=32"`
}

// Default returns the built-in configuration. Load layers the YAML file
// and environment on top of it.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "stdout",
			FilePath: "logs/forestpanel.log",
		},
		Paths: PathsConfig{
			OutputDir:   "data/output",
			LevelCSV:    "panel_levels.csv",
			DeltaCSV:    "panel_deltas.csv",
			CodebookCSV: "variables_codebook.csv",
			ReportJSON:  "run_report.json",
			Workbook:    "panel.xlsx",
		},
		Providers: ProvidersConfig{
			Cepalstat: CepalstatConfig{
				BaseURL: "https://api-cepalstat.cepal.org/cepalstat/api/v1",
				Timeout: 30 * time.Second,
				Retries: 3,
			},
			WorldBank: WorldBankConfig{
				BaseURL:           "https://api.worldbank.org/v2",
				Timeout:           30 * time.Second,
				RequestsPerSecond: 5,
			},
			Faostat: FaostatConfig{
				BaseURL:    "https://fenixservices.fao.org/faostat/api/v1/en",
				Timeout:    60 * time.Second,
				ArchiveDir: "data/faostat",
			},
		},
		Pipeline: PipelineConfig{Concurrency: 4},
	}
}

var validate = validator.New()

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty or the file does not exist), then
// environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Optional file.
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	// Environment wins over the file. Fields without a set variable keep
	// their current value.
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: process environment: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}
