package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// AdminClaims are the claims carried by an admin session token.
type AdminClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

var (
	// ErrInvalidToken is returned for tokens that fail parsing or validation
	ErrInvalidToken = errors.New("invalid token")
)

// GenerateAdminJWT creates a short-lived HS256 token carrying the admin
// email.
func GenerateAdminJWT(email string, secret []byte, ttl time.Duration) (string, int64, error) {
	expiresAt := time.Now().Add(ttl)
	claims := AdminClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", 0, err
	}
	return signed, expiresAt.Unix(), nil
}

// ValidateAdminJWT parses and verifies an admin token, returning its claims.
func ValidateAdminJWT(tokenString string, secret []byte) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsAllowedAdmin reports whether email is on the admin allow-list.
func IsAllowedAdmin(email string, allowed []string) bool {
	for _, a := range allowed {
		if a == email {
			return true
		}
	}
	return false
}
