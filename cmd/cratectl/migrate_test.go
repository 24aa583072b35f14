package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMigrate(t *testing.T, args ...string) error {
	t.Helper()
	cmd := migrateCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestMigrate_DoesNotNeedJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("DATABASE_URL", "postgres://cratetrack@127.0.0.1:1/cratetrack?sslmode=disable&connect_timeout=1")
	t.Setenv("DB_TIMEOUT_SEC", "1")

	err := runMigrate(t, "status")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "falha ao conectar")
	assert.NotContains(t, err.Error(), "JWT_SECRET_KEY")
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	err := runMigrate(t, "up")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
