package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("GEMINI_API_KEY", "test-key")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Telegram.PollTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Zero(t, cfg.Session.TTL)
}

func TestLoadFailsWithoutToken(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestEnvOverridesDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")
	t.Setenv("TELEGRAM_POLL_TIMEOUT", "45s")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("METRICS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.Model)
	assert.Equal(t, 45*time.Second, cfg.Telegram.PollTimeout)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestConfigFileLayeredUnderEnv(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "gemini:\n  model: from-file\nlogging:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Gemini.Model)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Env still wins over the file.
	t.Setenv("GEMINI_MODEL", "from-env")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Gemini.Model)
}

func TestInvalidLogLevelRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOGGING_LEVEL", "loud")

	_, err := Load()
	require.Error(t, err)
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TELEGRAM_TOKEN", "telegram.token"},
		{"TELEGRAM_POLL_TIMEOUT", "telegram.poll_timeout"},
		{"GEMINI_API_KEY", "gemini.api_key"},
		{"LOGGING_LEVEL", "logging.level"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
