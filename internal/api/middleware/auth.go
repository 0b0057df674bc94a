package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/studentaffairs/portal/internal/api/problem"
	"github.com/studentaffairs/portal/internal/auth"
)

const claimsKey contextKey = "claims"

// ContextWithClaims stores verified claims on ctx.
func ContextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Claims returns the verified caller, or nil for anonymous requests.
func Claims(r *http.Request) *auth.Claims {
	if r == nil {
		return nil
	}
	if claims, ok := r.Context().Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// OptionalAuth verifies a bearer token when one is sent. Requests without an
// Authorization header pass through anonymously; a bad token is a 401.
func OptionalAuth(manager *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := verify(manager, r)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid token", err, env)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

// AdminAuth requires a valid bearer token carrying the admin role.
func AdminAuth(manager *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verify(manager, r)
			if err != nil {
				title := "Invalid token"
				if errors.Is(err, auth.ErrMissingToken) {
					title = "Missing authorization header"
				}
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, title, err, env)
				return
			}
			if !auth.IsAdmin(claims) {
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", problem.ErrForbidden, env)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

func verify(manager *auth.JWTManager, r *http.Request) (*auth.Claims, error) {
	if manager == nil {
		return nil, problem.ErrUnauthorized
	}
	token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	return manager.Validate(token)
}
