// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/researches/auth"
)

type contextKey struct{}

var userKey contextKey

// RequireAuth rejects requests without a valid bearer token and stores the
// token claims in the request context
func RequireAuth(secret string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				ErrorResponse(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}

			claims, err := auth.ParseToken(token, secret)
			if err != nil {
				slog.Debug("rejected token", "path", r.URL.Path, "error", err)
				ErrorResponse(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			next(w, r.WithContext(WithUser(r.Context(), claims)))
		}
	}
}

// WithUser returns a context carrying the authenticated user's claims
func WithUser(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, userKey, claims)
}

// UserFromContext returns the claims stored by RequireAuth
func UserFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(userKey).(*auth.Claims)
	return claims, ok && claims != nil
}
