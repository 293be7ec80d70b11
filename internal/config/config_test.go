package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.API.Timeout())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.State.DBPath)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `api:
  base_url: https://api.flaire.example
  timeout_seconds: 30
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.flaire.example", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NotEmpty(t, cfg.State.DBPath, "unset fields keep defaults")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadNormalizesInvalidTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  timeout_seconds: -5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.API.Timeout())
}
