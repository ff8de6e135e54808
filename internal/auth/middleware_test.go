package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimate-backend/internal/auth"
	"medimate-backend/pkg/api"
)

var secret = []byte("test-secret")

func protectedHandler(t *testing.T) http.Handler {
	return auth.Middleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(identity))
	}))
}

func TestMiddlewareValidToken(t *testing.T) {
	token, err := auth.SignToken(secret, auth.Identity{UserId: "user-1", Email: "user-1@example.com", Role: "user"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protectedHandler(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var identity auth.Identity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &identity))
	assert.Equal(t, auth.Identity{UserId: "user-1", Email: "user-1@example.com", Role: "user"}, identity)
}

func TestMiddlewareMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	protectedHandler(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var response api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.False(t, response.Success)
	assert.Equal(t, "Authentication required", response.Message)
}

func TestMiddlewareRejectsBadTokens(t *testing.T) {
	expired, err := auth.SignToken(secret, auth.Identity{UserId: "user-1"}, -time.Minute)
	require.NoError(t, err)

	wrongSecret, err := auth.SignToken([]byte("other-secret"), auth.Identity{UserId: "user-1"}, time.Hour)
	require.NoError(t, err)

	noSubject, err := auth.SignToken(secret, auth.Identity{Email: "user-1@example.com"}, time.Hour)
	require.NoError(t, err)

	cases := map[string]string{
		"NotBearer":   "Basic dXNlcjpwYXNz",
		"EmptyToken":  "Bearer ",
		"Malformed":   "Bearer not-a-token",
		"Expired":     "Bearer " + expired,
		"WrongSecret": "Bearer " + wrongSecret,
		"NoSubject":   "Bearer " + noSubject,
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()

			protectedHandler(t).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var response api.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Equal(t, "Invalid token", response.Message)
		})
	}
}

func TestWithIdentity(t *testing.T) {
	ctx := auth.WithIdentity(context.Background(), auth.Identity{UserId: "user-1"})

	identity, ok := auth.IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-1", identity.UserId)

	_, ok = auth.IdentityFromContext(context.Background())
	assert.False(t, ok)
}
