package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "-", cfg.Input)
	assert.Equal(t, 0, cfg.BatchRows)
	assert.Equal(t, "none", cfg.Compression)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Output = "out.arrow"
	require.NoError(t, cfg.Validate())

	cfg.Output = ""
	require.Error(t, cfg.Validate())

	cfg.Output = "out.arrow"
	cfg.BatchRows = -1
	require.Error(t, cfg.Validate())

	cfg.BatchRows = 0
	cfg.Compression = "brotli"
	require.Error(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seriate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input: events.ndjson
output: events.arrow
batch_rows: 1024
compression: zstd
log_level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "events.ndjson", cfg.Input)
	assert.Equal(t, "events.arrow", cfg.Output)
	assert.Equal(t, 1024, cfg.BatchRows)
	assert.Equal(t, "zstd", cfg.Compression)
	assert.Equal(t, "debug", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
