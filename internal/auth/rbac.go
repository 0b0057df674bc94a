package auth

import "strings"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	default:
		return RoleStudent
	}
}

func IsAdmin(claims *Claims) bool {
	return claims.PortalRole() == RoleAdmin
}
