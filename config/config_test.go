package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "database:\n  dsn: \"file:test.db\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.Equal(t, "Europe/Bucharest", cfg.Render.Timezone)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 64, cfg.WorkerPool.QueueSize)
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.Equal(t, "forms", cfg.Archive.Prefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Push.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  driver: postgres
  dsn: "host=db"
push:
  vapid_public_key: "pub"
`)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file::memory:")
	t.Setenv("VAPID_PRIVATE_KEY", "priv")
	t.Setenv("API_BASE_URL", "http://api.local")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file::memory:", cfg.Database.DSN)
	assert.Equal(t, "http://api.local", cfg.Server.APIBaseURL)
	assert.True(t, cfg.Push.Enabled())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Contains(t, cfg.Server.AllowedOrigins, "http://localhost:3000")
}
