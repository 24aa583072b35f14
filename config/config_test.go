package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cratetrack/config"
)

func TestLoad_MemoryDriverDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "segredo")
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, config.StorageMemory, cfg.StorageDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, 30*time.Second, cfg.InventoryCacheTTL)
	assert.Equal(t, 0, cfg.CrateQuota)
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("JWT_SECRET_KEY", "segredo")
	t.Setenv("DATABASE_URL", "")

	_, err := config.Load()

	assert.Error(t, err)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := config.Load()

	assert.Error(t, err)
}

func TestLoad_InvalidNumberFallsBack(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "segredo")
	t.Setenv("CRATE_QUOTA_PER_TENANT", "muitas")
	t.Setenv("JWT_EXPIRY_MIN", "15")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 0, cfg.CrateQuota)
	assert.Equal(t, 15*time.Minute, cfg.TokenExpiry)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET_KEY", "segredo")

	_, err := config.Load()

	assert.Error(t, err)
}

func TestLoadDatabase_IgnoresJWTSecret(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/cratetrack")
	t.Setenv("DB_TIMEOUT_SEC", "9")

	cfg, err := config.LoadDatabase()

	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/cratetrack", cfg.DatabaseURL)
	assert.Equal(t, 9*time.Second, cfg.DBTimeout)
}

func TestLoadDatabase_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := config.LoadDatabase()

	assert.Error(t, err)
}
