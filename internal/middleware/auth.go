// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenVerifier validates an access token and returns the user id it was
// minted for.
type TokenVerifier interface {
	VerifyAccessToken(token string) (string, error)
}

// BearerAuth is a middleware that enforces bearer-token authentication.
//
// It expects an "Authorization: Bearer <token>" header, validates the
// token with the given verifier and stores the resulting user id in the
// request context for downstream handlers.
func BearerAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				unauthorized(w, "missing bearer token")
				return
			}
			userID, err := verifier.VerifyAccessToken(strings.TrimPrefix(auth, prefix))
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), userKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"message":"` + msg + `"}`))
}

// GetUserIDFromContext extracts the authenticated user id from the
// request context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// WithUserID returns a context carrying the given user id. Intended for
// handler tests that bypass the middleware.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}
