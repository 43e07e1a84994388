package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/trading-dashboard-bfa/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, 10, cfg.DefaultPageSize)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 15*time.Second, cfg.StreamInterval)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"PORT":                 "9090",
		"GRAPHQL_URL":          "http://backend:4000/graphql",
		"CACHE_BACKEND":        "redis",
		"REDIS_ADDR":           "redis:6379",
		"DASHBOARD_TIMEZONE":   "UTC",
		"CORS_ALLOWED_ORIGINS": "https://a.example,https://b.example",
		"STREAM_INTERVAL":      "5s",
	})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.StreamInterval)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadFrom_ValidationAggregates(t *testing.T) {
	_, err := config.LoadFrom(map[string]string{
		"PORT":               "0",
		"CACHE_BACKEND":      "memcached",
		"DASHBOARD_TIMEZONE": "Mars/Olympus",
		"DEFAULT_PAGE_SIZE":  "500",
	})
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "PORT")
	assert.Contains(t, msg, "CACHE_BACKEND")
	assert.Contains(t, msg, "DASHBOARD_TIMEZONE")
	assert.Contains(t, msg, "DEFAULT_PAGE_SIZE")
}

func TestLoadFrom_BadDuration(t *testing.T) {
	_, err := config.LoadFrom(map[string]string{"HTTP_TIMEOUT": "soon"})
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("BFA_TEST_DOTENV=from-file\nBFA_TEST_PRESET=from-file\n"), 0o600))

	t.Setenv("BFA_TEST_PRESET", "from-env")
	t.Cleanup(func() { os.Unsetenv("BFA_TEST_DOTENV") })

	require.NoError(t, config.LoadDotEnv(filepath.Join(dir, "missing.env"), path))

	assert.Equal(t, "from-file", os.Getenv("BFA_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("BFA_TEST_PRESET"))
}
