package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRole(t *testing.T) {
	require.Equal(t, RoleAdmin, NormalizeRole(" Admin "))
	require.Equal(t, RoleStudent, NormalizeRole("student"))
	require.Equal(t, RoleStudent, NormalizeRole("authenticated"))
	require.Equal(t, RoleStudent, NormalizeRole(""))
}

func TestIsAdmin(t *testing.T) {
	require.True(t, IsAdmin(&Claims{AppMetadata: AppMetadata{Role: "admin"}}))
	require.False(t, IsAdmin(&Claims{Role: "authenticated"}))
	require.False(t, IsAdmin(nil))
}
