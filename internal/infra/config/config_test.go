package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
forecast:
  defaultHorizonDays: 30
  allocation: tdee
valkey:
  enabled: true
  addr: localhost:6379
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("FORECAST_BATCH_MODE", "fail_fast")
	t.Setenv("FORECAST_CACHE_TTL", "5m")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 30, cfg.Forecast.DefaultHorizonDays)
	require.Equal(t, "tdee", cfg.Forecast.Allocation)
	require.Equal(t, "fail_fast", cfg.Forecast.BatchMode)
	require.Equal(t, 5*time.Minute, cfg.Forecast.CacheTTL)
	require.True(t, cfg.Valkey.Enabled)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	require.Equal(t, 1825, cfg.Forecast.MaxHorizonDays)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 90, cfg.Forecast.DefaultHorizonDays)

	cfg.Forecast.BatchMode = "sometimes"
	require.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Forecast.Allocation = "age"
	require.Error(t, cfg.Validate())

	cfg = defaultConfig()
	require.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	cfg.HTTP.ShutdownTimeout = 0
	require.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Forecast.IntakeWindowDays = 120
	require.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Storage.Enabled = true
	cfg.Storage.Endpoint = ""
	require.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Valkey.Enabled = true
	require.Error(t, cfg.Validate())
}
