package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	assert.Equal(t, 30, cfg.API.TimeoutSec)
	assert.Equal(t, "token", cfg.API.SessionCookie)
	assert.Equal(t, 10, cfg.Notifications.PerPage)
	assert.Equal(t, 20, cfg.Notifications.LowStockLimit)
	assert.Equal(t, 5*time.Minute, cfg.Notifications.RefreshInterval())
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadConfig_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  base_url: https://erp.example.com/api/
  max_retries: 1
notifications:
  per_page: 25
  refresh_interval_sec: -5
cache:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("INVENTORY_DESK_NOTIFICATIONS_LOW_STOCK_LIMIT", "5")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://erp.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 1, cfg.API.MaxRetries)
	assert.Equal(t, 25, cfg.Notifications.PerPage)
	assert.Equal(t, 5, cfg.Notifications.LowStockLimit)
	assert.Equal(t, 300, cfg.Notifications.RefreshIntervalSec)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unterminated"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.API.BaseURL = "https://erp.example.com/api"
	cfg.Notifications.PerPage = 15

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://erp.example.com/api", loaded.API.BaseURL)
	assert.Equal(t, 15, loaded.Notifications.PerPage)
}
