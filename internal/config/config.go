package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledgeraudit/internal/money"
)

// FileName is the config file written by `ledgeraudit init`.
const FileName = "ledgeraudit.yaml"

// Config represents the top-level ledgeraudit.yaml configuration.
type Config struct {
	Audit   AuditConfig   `yaml:"audit"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	Alerts  AlertsConfig  `yaml:"alerts"`
}

// AuditConfig controls validation defaults and the in-memory history.
type AuditConfig struct {
	DefaultVATRate    string `yaml:"default_vat_rate"` // decimal string, e.g. "0.1600"
	HistorySize       int    `yaml:"history_size"`
	CommonErrorsLimit int    `yaml:"common_errors_limit"`
}

// StoreConfig selects where audit results are persisted.
type StoreConfig struct {
	Driver string `yaml:"driver"` // csv, sqlite or none
	Path   string `yaml:"path"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// AlertsConfig toggles alert dispatch for critical findings.
type AlertsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Environment variables that override the file.
const (
	EnvVATRate       = "LEDGERAUDIT_VAT_RATE"
	EnvHistorySize   = "LEDGERAUDIT_HISTORY_SIZE"
	EnvStoreDriver   = "LEDGERAUDIT_STORE_DRIVER"
	EnvStorePath     = "LEDGERAUDIT_STORE_PATH"
	EnvLogLevel      = "LEDGERAUDIT_LOG_LEVEL"
	EnvLogFormat     = "LEDGERAUDIT_LOG_FORMAT"
	EnvAlertsEnabled = "LEDGERAUDIT_ALERTS_ENABLED"
)

// Load reads a ledgeraudit.yaml file from disk. Keys missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Audit: AuditConfig{
			DefaultVATRate:    "0.1600",
			HistorySize:       500,
			CommonErrorsLimit: 10,
		},
		Store: StoreConfig{
			Driver: "csv",
			Path:   "logs/audit-log.csv",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Alerts: AlertsConfig{
			Enabled: true,
		},
	}
}

// LoadEnv loads envFile (or .env in the working directory when envFile is
// empty) into the process environment. A missing default .env is ignored;
// a malformed one is not.
func LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with any LEDGERAUDIT_* variables that are set.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvVATRate); ok {
		c.Audit.DefaultVATRate = v
	}
	if v, ok := os.LookupEnv(EnvHistorySize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHistorySize, err)
		}
		c.Audit.HistorySize = n
	}
	if v, ok := os.LookupEnv(EnvStoreDriver); ok {
		c.Store.Driver = v
	}
	if v, ok := os.LookupEnv(EnvStorePath); ok {
		c.Store.Path = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		c.Logging.Format = v
	}
	if v, ok := os.LookupEnv(EnvAlertsEnabled); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvAlertsEnabled, err)
		}
		c.Alerts.Enabled = b
	}
	return nil
}

// VATRate parses the configured default VAT rate.
func (c *Config) VATRate() (money.Rate, error) {
	r, err := money.ParseRate(c.Audit.DefaultVATRate)
	if err != nil {
		return money.Rate{}, fmt.Errorf("default_vat_rate: %w", err)
	}
	return r, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if r, err := c.VATRate(); err != nil {
		errs = append(errs, err)
	} else if r.IsNegative() {
		errs = append(errs, fmt.Errorf("default_vat_rate: must not be negative, got %s", r))
	}
	if c.Audit.HistorySize < 1 {
		errs = append(errs, fmt.Errorf("history_size: must be at least 1, got %d", c.Audit.HistorySize))
	}
	if c.Audit.CommonErrorsLimit < 0 {
		errs = append(errs, fmt.Errorf("common_errors_limit: must not be negative, got %d", c.Audit.CommonErrorsLimit))
	}

	switch c.Store.Driver {
	case "none":
	case "csv", "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path: required for driver %q", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: must be text or json, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
