package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.Equal(t, filepath.Join(cfg.DataDir, "state.db"), cfg.DBPath)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().BaseURL, cfg.BaseURL)
	assert.Equal(t, Default().PageSize, cfg.PageSize)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`base_url: https://judge.example.com
data_dir: ` + dir + `
page_size: 25
request_timeout: 5s
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("OJTERM_PAGE_SIZE", "40")
	t.Setenv("OJTERM_MONITOR_INTERVAL", "3s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://judge.example.com", cfg.BaseURL)
	assert.Equal(t, 40, cfg.PageSize)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3*time.Second, cfg.MonitorInterval)
	assert.Equal(t, filepath.Join(dir, "state.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "cookies.json"), cfg.CookiePath)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("page_size: 0\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_size")
}

func TestIsReservedEmail(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.IsReservedEmail("admin@adminmail.com"))
	assert.True(t, cfg.IsReservedEmail("  ADMIN@adminmail.com "))
	assert.False(t, cfg.IsReservedEmail("someone@example.com"))
}
