// Package config provides the unified configuration for the Seriate
// CLI. A single Config structure covers input/output, batching,
// protection, and observability settings; it loads from a YAML or JSON
// file with environment overrides and validates before use.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the configuration for an ingest run.
type Config struct {
	// Input is the NDJSON input path ("-" for stdin).
	Input string `mapstructure:"input" yaml:"input"`
	// Output is the Arrow IPC output path.
	Output string `mapstructure:"output" yaml:"output"`
	// SchemaFile declares a protection type for the builder.
	SchemaFile string `mapstructure:"schema_file" yaml:"schema_file"`
	// SchemaName names emitted batches; empty uses the type's own name.
	SchemaName string `mapstructure:"schema_name" yaml:"schema_name"`
	// BatchRows cuts a batch every N rows; 0 cuts only at conflicts and
	// end of input.
	BatchRows int `mapstructure:"batch_rows" yaml:"batch_rows"`
	// Compression selects output compression: none, zstd, or lz4.
	Compression string `mapstructure:"compression" yaml:"compression"`
	// Strict aborts on the first bad line instead of skipping it.
	Strict bool `mapstructure:"strict" yaml:"strict"`

	// Observability settings.
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	Trace       bool   `mapstructure:"trace" yaml:"trace"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Input:       "-",
		BatchRows:   0,
		Compression: "none",
		LogLevel:    "info",
	}
}

// Load reads configuration from an optional file and SERIATE_*
// environment variables, applied over the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	cfg := Default()
	// Every key needs a default: AutomaticEnv only overrides keys viper
	// already knows when unmarshalling.
	v.SetDefault("input", cfg.Input)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("schema_file", cfg.SchemaFile)
	v.SetDefault("schema_name", cfg.SchemaName)
	v.SetDefault("batch_rows", cfg.BatchRows)
	v.SetDefault("compression", cfg.Compression)
	v.SetDefault("strict", cfg.Strict)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)
	v.SetDefault("trace", cfg.Trace)

	v.SetEnvPrefix("SERIATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if c.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if c.BatchRows < 0 {
		return fmt.Errorf("batch_rows must be non-negative, got %d", c.BatchRows)
	}
	switch c.Compression {
	case "", "none", "zstd", "lz4":
	default:
		return fmt.Errorf("unknown compression %q", c.Compression)
	}
	return nil
}
