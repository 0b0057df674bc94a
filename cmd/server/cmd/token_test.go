package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studentaffairs/portal/internal/auth"
)

func TestTokenCommandMintsVerifiableToken(t *testing.T) {
	const secret = "token-command-secret"

	out, err := execute(t, "--env-file", "", "token", "--secret", secret, "--email", "osa@school.edu", "--role", "admin")
	require.NoError(t, err)

	claims, err := auth.NewJWTManager(secret, 0, "").Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	require.Equal(t, "osa@school.edu", claims.Email)
	require.Equal(t, "osa@school.edu", claims.Subject)
	require.True(t, auth.IsAdmin(claims))
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := execute(t, "--env-file", "", "token", "--email", "a@b.c")
	require.ErrorContains(t, err, "JWT_SECRET is required")
}
