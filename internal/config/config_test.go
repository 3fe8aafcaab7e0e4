package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoFile_UsesDefaults(t *testing.T) {
	// When
	cfg, err := Load(New(), "")

	// Then
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 20.0, cfg.Server.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "data.csv", cfg.Data.Source)
	assert.Equal(t, 60*time.Second, cfg.Data.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ValidYAML_OverridesDefaults(t *testing.T) {
	// Given
	dir := t.TempDir()
	path := filepath.Join(dir, "salesdash.yaml")
	content := `server:
  addr: ":9090"
  shutdown_timeout: 3s
data:
  source: "https://example.com/sales.csv"
  cache: "/tmp/sales.csv"
  format: xlsx
  sheet: Sales
log:
  level: debug`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// When
	cfg, err := Load(New(), path)

	// Then
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "https://example.com/sales.csv", cfg.Data.Source)
	assert.Equal(t, "xlsx", cfg.Data.Format)
	assert.Equal(t, "Sales", cfg.Data.Sheet)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 20.0, cfg.Server.RateLimit)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	// Given
	t.Setenv("SALESDASH_SERVER_ADDR", ":7070")
	t.Setenv("SALESDASH_DATA_FORMAT", "duckdb")

	// When
	cfg, err := Load(New(), "")

	// Then
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "duckdb", cfg.Data.Format)
}

func TestLoad_MissingFile_ReturnsError(t *testing.T) {
	// When
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))

	// Then
	assert.Error(t, err)
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	// Given
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: addr: :80: bad"), 0o644))

	// When
	_, err := Load(New(), path)

	// Then
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	// Given
	v := New()
	v.Set("data.format", "parquet")

	// When
	_, err := Load(v, "")

	// Then
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parquet")
}
