package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cratetrack/internal/pkg/token"
)

func TestTokenIssue(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "segredo-cli")

	var out bytes.Buffer
	cmd := tokenCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"issue", "--tenant", "armazem-sul", "--user", "leitor-07", "--role", "viewer", "--ttl", "2h"})

	require.NoError(t, cmd.Execute())

	claims, err := token.NewService("segredo-cli", time.Hour).ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "armazem-sul", claims.TenantID)
	assert.Equal(t, "leitor-07", claims.UserID)
	assert.Equal(t, "viewer", claims.Role)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenIssue_InvalidRole(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "segredo-cli")

	cmd := tokenCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"issue", "--tenant", "armazem-sul", "--role", "root"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role inválida")
}

func TestTokenIssue_RequiresTenant(t *testing.T) {
	cmd := tokenCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"issue"})

	assert.Error(t, cmd.Execute())
}
