package gomcp

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv clears a variable for the test while keeping t.Setenv's automatic
// restore of the original value.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"MCP_HOST", "MCP_PORT", "MCP_DEBUG", "MCP_RESOURCE_PREFIX", "MCP_ALLOWED_ORIGINS"} {
		unsetenv(t, key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8000, cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "resource://", cfg.ResourcePrefix)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr())
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("MCP_HOST", "0.0.0.0")
	t.Setenv("MCP_PORT", "9001")
	t.Setenv("MCP_DEBUG", "true")
	t.Setenv("MCP_RESOURCE_PREFIX", "doc://")
	t.Setenv("MCP_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9001, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "doc://", cfg.ResourcePrefix)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "0.0.0.0:9001", cfg.Addr())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("MCP_PORT", "not-a-port")

	_, err := LoadConfigFromEnv()
	assert.Error(t, err)
}
