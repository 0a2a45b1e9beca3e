package crypto

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims bind a signed session token to a user identity.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// SignSessionToken mints an HS256 token for userID with the given validity
// window. The jti claim carries a fresh UUID so two tokens minted within the
// same second still differ.
func SignSessionToken(userID string, secret []byte, validity time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID: userID,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseSessionToken validates integrity and expiry and returns the bound
// user ID. Errors are the jwt library's; callers map them to their own kinds.
func ParseSessionToken(raw string, secret []byte) (string, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", jwt.ErrTokenUnverifiable
	}

	return claims.UserID, nil
}
