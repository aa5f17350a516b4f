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
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "https://data-api.polymarket.com", cfg.DataAPIBaseURL)
	assert.Equal(t, AuthModeNone, cfg.DataAPIAuthMode)
	assert.Equal(t, 24, cfg.DefaultLookbackHours)
	assert.Equal(t, 720, cfg.MaxLookbackHours)
	assert.Equal(t, 100, cfg.MaxLimit)
	assert.Equal(t, 50, cfg.MaxMarketLimit)
	assert.Equal(t, 5*time.Second, cfg.ProfileTimeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("MAX_LOOKBACK_HOURS", "168")
	t.Setenv("DATA_API_TRADES_RPS", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 168, cfg.MaxLookbackHours)
	assert.InDelta(t, 0.5, cfg.DataAPITradesRPS, 1e-9)
}

func TestValidateAuthMode(t *testing.T) {
	t.Setenv("DATA_API_AUTH_MODE", "bearer")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DATA_API_BEARER_TOKEN", "token")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, AuthModeBearer, cfg.DataAPIAuthMode)

	t.Setenv("DATA_API_AUTH_MODE", "carrier-pigeon")
	_, err = Load()
	assert.Error(t, err)
}

func TestValidateClampsProfileWorkers(t *testing.T) {
	t.Setenv("PROFILE_WORKERS", "50")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.ProfileWorkers)

	t.Setenv("PROFILE_WORKERS", "0")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.ProfileWorkers)
}

func TestLoadRejectsBadExtraHeaders(t *testing.T) {
	t.Setenv("DATA_API_EXTRA_HEADERS", "not-json")
	_, err := Load()
	assert.Error(t, err)
}

func TestSecretFileWinsOverEnv(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "gemini_key")
	require.NoError(t, os.WriteFile(keyFile, []byte("file-key\n"), 0o600))

	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("GEMINI_API_KEY_FILE", keyFile)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.GeminiAPIKey)
}
