package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Config holds all salesreport configuration.
type Config struct {
	// Source store
	Driver string `yaml:"driver"`  // sqlite, sqlite3, mysql, pgx
	DBPath string `yaml:"db_path"` // file path for sqlite drivers, DSN otherwise

	// Report destinations, one per strategy
	SQLOutputPath     string `yaml:"sql_output_path"`
	PandasOutputPath  string `yaml:"pandas_output_path"`
	DatalogOutputPath string `yaml:"datalog_output_path"` // empty disables the datalog strategy

	// Compare the result sets of all strategies after the run
	Verify bool `yaml:"verify"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// ValidDrivers lists the database/sql drivers the source store registers.
var ValidDrivers = []string{"sqlite", "sqlite3", "mysql", "pgx"}

// ValidLevels lists the accepted logging levels.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// ValidFormats lists the accepted logging encodings.
var ValidFormats = []string{"console", "json"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Driver:           "sqlite",
		DBPath:           "Data Engineer_ETL Assignment.db",
		SQLOutputPath:    "output_sql.csv",
		PandasOutputPath: "output_python.csv",
		Verify:           true,

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !slices.Contains(ValidDrivers, c.Driver) {
		return fmt.Errorf("invalid driver: %s (valid: %v)", c.Driver, ValidDrivers)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path not configured")
	}
	if c.SQLOutputPath == "" {
		return fmt.Errorf("sql_output_path not configured")
	}
	if c.PandasOutputPath == "" {
		return fmt.Errorf("pandas_output_path not configured")
	}

	// Each strategy needs its own file so the reports can be diffed.
	seen := map[string]string{c.SQLOutputPath: "sql_output_path"}
	for key, path := range map[string]string{
		"pandas_output_path":  c.PandasOutputPath,
		"datalog_output_path": c.DatalogOutputPath,
	} {
		if path == "" {
			continue
		}
		clean := filepath.Clean(path)
		for other, otherKey := range seen {
			if filepath.Clean(other) == clean {
				return fmt.Errorf("%s and %s both point to %s", otherKey, key, path)
			}
		}
		seen[path] = key
	}

	if !slices.Contains(ValidLevels, c.Logging.Level) {
		return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}
	if !slices.Contains(ValidFormats, c.Logging.Format) {
		return fmt.Errorf("invalid logging format: %s (valid: %v)", c.Logging.Format, ValidFormats)
	}

	return nil
}

// IsDatalogEnabled returns whether the datalog strategy should run.
func (c *Config) IsDatalogEnabled() bool {
	return c.DatalogOutputPath != ""
}
