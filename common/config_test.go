package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "http://www.tsetmc.com", config.Client.BaseURL)
	assert.Equal(t, "http://old.tsetmc.com", config.Client.LegacyBaseURL)
	assert.Equal(t, "http://cdn.tsetmc.com", config.Client.CDNBaseURL)
	assert.Equal(t, 10, config.Client.RateLimit)
	assert.Equal(t, 3, config.Client.MaxRetries)
	assert.Equal(t, 30*time.Second, config.Client.GetTimeout())
	assert.True(t, config.Cache.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsetmc.toml")
	content := `
[client]
base_url = "http://mirror.example.com"
rate_limit = 2
timeout = "5s"

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://mirror.example.com", config.Client.BaseURL)
	assert.Equal(t, 2, config.Client.RateLimit)
	assert.Equal(t, 5*time.Second, config.Client.GetTimeout())
	assert.Equal(t, "debug", config.Logging.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, "http://cdn.tsetmc.com", config.Client.CDNBaseURL)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig("/does/not/exist.toml")
	require.NoError(t, err)
	assert.Equal(t, "http://www.tsetmc.com", config.Client.BaseURL)
}

func TestLoadConfigMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("client = {"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TSETMC_BASE_URL", "http://env.example.com")
	t.Setenv("TSETMC_RATE_LIMIT", "7")
	t.Setenv("TSETMC_LOG_LEVEL", "warn")
	t.Setenv("TSETMC_DATA_PATH", "/tmp/market")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://env.example.com", config.Client.BaseURL)
	assert.Equal(t, 7, config.Client.RateLimit)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, "/tmp/market", config.Cache.Path)
}

func TestEnvOverrideInvalidRateLimitIgnored(t *testing.T) {
	t.Setenv("TSETMC_RATE_LIMIT", "zero")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10, config.Client.RateLimit)
}

func TestGetTimeoutFallback(t *testing.T) {
	c := ClientConfig{Timeout: "not-a-duration"}
	assert.Equal(t, 30*time.Second, c.GetTimeout())
}
