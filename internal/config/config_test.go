package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load looks at, restoring them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	names := []string{
		"SNIPPETS_SERVER_PORT", "SNIPPETS_DATABASE_PATH", "SNIPPETS_AUTH_JWT_SECRET",
		"SNIPPETS_EXECUTOR_ENABLED", "SNIPPETS_PAGINATION_PAGE_SIZE", "SNIPPETS_LOG_FORMAT",
	}
	for _, legacy := range legacyEnv {
		names = append(names, legacy)
	}
	for _, name := range names {
		if old, ok := os.LookupEnv(name); ok {
			t.Cleanup(func() { os.Setenv(name, old) })
			os.Unsetenv(name)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/snippets.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Pagination.PageSize)
	assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
	assert.False(t, cfg.Executor.Enabled)
	assert.False(t, cfg.GitHub.Enabled())
	assert.Equal(t, "http://localhost:8080/auth/github/callback", cfg.GitHub.CallbackURL)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "snippets.yaml")
	yaml := `
server:
  port: 9000
database:
  path: /tmp/x.db
executor:
  enabled: true
  timeout: 2s
  languages: [python]
pagination:
  page_size: 25
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.True(t, cfg.Executor.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Executor.Timeout)
	assert.Equal(t, []string{"python"}, cfg.Executor.Languages)
	assert.Equal(t, 25, cfg.Pagination.PageSize)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "snippets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600))
	t.Setenv("SNIPPETS_SERVER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoad_LegacyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("GITHUB_CLIENT_ID", "id")
	t.Setenv("GITHUB_CLIENT_SECRET", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.True(t, cfg.GitHub.Enabled())
}

func TestLoad_PrefixedBeatsLegacy(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("SNIPPETS_SERVER_PORT", "7001")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"db path", func(c *Config) { c.Database.Path = "" }},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }},
		{"ttl", func(c *Config) { c.Auth.TokenTTL = 0 }},
		{"page size", func(c *Config) { c.Pagination.PageSize = 0 }},
		{"max below default", func(c *Config) { c.Pagination.MaxPageSize = 5 }},
		{"pool", func(c *Config) { c.Executor.Enabled = true; c.Executor.PoolSize = 0 }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
