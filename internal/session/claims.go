package session

import (
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseClaims extracts the user and expiry from an access token without
// verifying its signature.
func ParseClaims(accessToken string) (User, time.Time, error) {
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return User{}, time.Time{}, fmt.Errorf("parse access token: %w", err)
	}
	var expiry time.Time
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	return User{ID: claims.Subject, Email: claims.Email}, expiry, nil
}
