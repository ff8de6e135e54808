package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"medimate-backend/pkg/api"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller extracted from a bearer token.
type Identity struct {
	UserId string
	Email  string
	Role   string
}

type Claims struct {
	jwt.RegisteredClaims
	UserId string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Middleware validates the Authorization bearer token on every request and
// attaches the caller identity to the request context. A missing credential
// and an invalid one are reported separately, both as 401.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeUnauthorized(w, "Authentication required")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				writeUnauthorized(w, "Invalid token")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				slog.Info("rejected bearer token", "error", err)
				writeUnauthorized(w, "Invalid token")
				return
			}

			identity := Identity{UserId: claims.UserId, Email: claims.Email, Role: claims.Role}
			if identity.UserId == "" {
				// Tokens without a subject cannot own history records.
				writeUnauthorized(w, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the given identity. Intended for
// tests and internal tooling that bypass the HTTP middleware.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(api.ErrorResponse{Success: false, Message: message}); err != nil {
		slog.Error("error serializing auth error response", "error", err)
	}
}
