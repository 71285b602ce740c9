// Package config loads layered application configuration: built-in
// defaults, then an optional YAML file, then DATABOOK_* environment
// variables. The merged result is validated before use.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Validation ValidationConfig `yaml:"validation" envconfig:"VALIDATION"`
	Parsing    ParsingConfig    `yaml:"parsing" envconfig:"PARSING"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Output     OutputConfig     `yaml:"output" envconfig:"OUTPUT"`
}

// ValidationConfig contains the validator's thresholds
type ValidationConfig struct {
	// MinTransactions is the floor on surviving transaction count; an
	// empty or near-empty result after cleaning is a failure.
	MinTransactions int `yaml:"min_transactions" envconfig:"MIN_TRANSACTIONS" validate:"min=1"`
	// MaxInvalidDateRate is the ceiling on invalid-date rows divided by
	// pre-exclusion candidate rows.
	MaxInvalidDateRate float64 `yaml:"max_invalid_date_rate" envconfig:"MAX_INVALID_DATE_RATE" validate:"gte=0,lte=1"`
	// BalanceTolerance is the currency-rounding tolerance for the
	// debit/credit balance check.
	BalanceTolerance float64 `yaml:"balance_tolerance" envconfig:"BALANCE_TOLERANCE" validate:"gte=0"`
}

// ParsingConfig contains structure-parser settings
type ParsingConfig struct {
	// AccountSeparator joins hierarchy levels into the flattened name.
	AccountSeparator string `yaml:"account_separator" envconfig:"ACCOUNT_SEPARATOR" validate:"required"`
	// HeaderScanRows bounds how deep the detector looks for a header row.
	HeaderScanRows int `yaml:"header_scan_rows" envconfig:"HEADER_SCAN_ROWS" validate:"min=1"`
	// IndentWidth is the number of leading spaces per hierarchy level in
	// the hierarchical dialect.
	IndentWidth int `yaml:"indent_width" envconfig:"INDENT_WIDTH" validate:"min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// OutputConfig contains databook output settings
type OutputConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR" validate:"required"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		Validation: ValidationConfig{
			MinTransactions:    1,
			MaxInvalidDateRate: 0.10,
			BalanceTolerance:   0.01,
		},
		Parsing: ParsingConfig{
			AccountSeparator: " : ",
			HeaderScanRows:   5,
			IndentWidth:      4,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "stdout",
			FilePath: "logs/databook.log",
		},
		Output: OutputConfig{
			Dir: "output",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path
// (skipped when path is empty or missing), and DATABOOK_* environment
// variables, in increasing precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return cfg, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process("DATABOOK", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
