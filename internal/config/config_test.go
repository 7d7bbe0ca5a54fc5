package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "STORE_DRIVER", "MONGODB_URI", "DATABASE_URL", "JWT_SECRET",
		"GUARD_REDIRECT_DELAY", "CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "SESSION_TTL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "haven", cfg.Store.DBName)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 400*time.Millisecond, cfg.Guard.RedirectDelay)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/haven")
	t.Setenv("PORT", "9090")
	t.Setenv("GUARD_REDIRECT_DELAY", "50ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 50*time.Millisecond, cfg.Guard.RedirectDelay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "haven.yaml")
	content := `
store:
  driver: memory
auth:
  jwt_secret: from-file
guard:
  redirect_delay: 250ms
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 250*time.Millisecond, cfg.Guard.RedirectDelay)
	// env wins over the file
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORE_DRIVER", "memory")
		_, err := Load()
		require.ErrorContains(t, err, "JWT_SECRET is required")
	})

	t.Run("missing mongo uri", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("JWT_SECRET", "secret")
		_, err := Load()
		require.ErrorContains(t, err, "MONGODB_URI is required")
	})

	t.Run("unknown driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("STORE_DRIVER", "redis")
		_, err := Load()
		require.ErrorContains(t, err, `unknown STORE_DRIVER "redis"`)
	})

	t.Run("bad port", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "99999")
		_, err := Load()
		require.ErrorContains(t, err, "out of range")
	})

	t.Run("bad duration", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GUARD_REDIRECT_DELAY", "soon")
		_, err := Load()
		require.ErrorContains(t, err, "invalid GUARD_REDIRECT_DELAY")
	})
}
