package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/reports", cfg.Report.OutputDir)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, int64(1), cfg.Scheduler.Concurrency)
	assert.Zero(t, cfg.Scheduler.PollInterval)
	assert.True(t, cfg.InsecureSecret())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Istanbul", loc.String())
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
auth:
  jwt_secret: from-file
  token_ttl: 2h
report:
  timezone: UTC
scheduler:
  poll_interval: 1m
  concurrency: 4
email:
  smtp_host: smtp.example.com
`), 0644))

	t.Setenv("DELIVERYDESK_AUTH_API_KEY", "cron-secret")
	t.Setenv("DELIVERYDESK_SERVER_PORT", "9191")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "cron-secret", cfg.Auth.APIKey)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.Minute, cfg.Scheduler.PollInterval)
	assert.Equal(t, int64(4), cfg.Scheduler.Concurrency)
	assert.Equal(t, "smtp.example.com", cfg.Email.SMTPHost)
	assert.False(t, cfg.InsecureSecret())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report:\n  timezone: Mars/Olympus\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "report.timezone")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
