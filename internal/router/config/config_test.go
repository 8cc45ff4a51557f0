package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := "STORAGE_DRIVER=memory\nJWT_SECRET=from-file\nREQUEST_TIMEOUT=3s\nSERVER_ADDRESS=:9000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, MemoryDriver, cfg.StorageDriver)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, ":9000", cfg.ServerAddress)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"postgres without conn": {"STORAGE_DRIVER": "postgres", "JWT_SECRET": "s", "POSTGRES_CONN": "", "POSTGRES_HOST": ""},
		"unknown driver":        {"STORAGE_DRIVER": "mongo", "JWT_SECRET": "s"},
		"no secret":             {"STORAGE_DRIVER": "memory", "JWT_SECRET": ""},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(t.TempDir())
			assert.Error(t, err)
		})
	}
}
