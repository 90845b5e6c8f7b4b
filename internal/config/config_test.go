package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Driver != "sqlite" {
		t.Errorf("expected Driver=sqlite, got %s", cfg.Driver)
	}
	if cfg.SQLOutputPath != "output_sql.csv" {
		t.Errorf("expected SQLOutputPath=output_sql.csv, got %s", cfg.SQLOutputPath)
	}
	if cfg.PandasOutputPath != "output_python.csv" {
		t.Errorf("expected PandasOutputPath=output_python.csv, got %s", cfg.PandasOutputPath)
	}
	if cfg.IsDatalogEnabled() {
		t.Error("expected datalog strategy to be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "salesreport.yaml")

	cfg := DefaultConfig()
	cfg.DBPath = "/data/shop.db"
	cfg.DatalogOutputPath = "output_datalog.csv"
	cfg.Logging.Format = "json"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salesreport.yaml")
	data := []byte("db_path: shop.db\nsql_output_path: out/sql.csv\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "shop.db", cfg.DBPath)
	assert.Equal(t, "out/sql.csv", cfg.SQLOutputPath)
	assert.Equal(t, "output_python.csv", cfg.PandasOutputPath)
	assert.Equal(t, "sqlite", cfg.Driver)
	assert.True(t, cfg.Verify)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: [unterminated"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Driver = "oracle" },
			wantErr: "invalid driver",
		},
		{
			name:    "empty db path",
			mutate:  func(c *Config) { c.DBPath = "" },
			wantErr: "db_path",
		},
		{
			name:    "empty sql output",
			mutate:  func(c *Config) { c.SQLOutputPath = "" },
			wantErr: "sql_output_path",
		},
		{
			name:    "empty pandas output",
			mutate:  func(c *Config) { c.PandasOutputPath = "" },
			wantErr: "pandas_output_path",
		},
		{
			name:    "shared destination",
			mutate:  func(c *Config) { c.PandasOutputPath = "./output_sql.csv" },
			wantErr: "both point to",
		},
		{
			name:    "datalog shares destination",
			mutate:  func(c *Config) { c.DatalogOutputPath = c.PandasOutputPath },
			wantErr: "both point to",
		},
		{
			name:    "bad level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: "invalid logging level",
		},
		{
			name:    "bad format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format",
		},
		{
			name:   "datalog enabled",
			mutate: func(c *Config) { c.DatalogOutputPath = "output_datalog.csv" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
