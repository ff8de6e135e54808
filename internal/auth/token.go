package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignToken mints an HS256 bearer token for the given identity. The API
// itself never issues tokens; this exists for local mode and tests.
func SignToken(secret []byte, identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserId,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserId: identity.UserId,
		Email:  identity.Email,
		Role:   identity.Role,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
