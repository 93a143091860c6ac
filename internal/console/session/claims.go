package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are inspected without signature verification. The store is the
// token's own holder, so the only questions asked of a token locally are
// "when does it expire" and "who is it for"; trust decisions stay with
// the provider, which verifies signatures server-side.

// TokenExpiry extracts the exp claim from a JWT without verifying it.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no expiry claim")
	}
	return exp.Time, nil
}

// TokenEmail extracts the email claim from an ID token without verifying
// it. Returns empty when the claim is absent.
func TokenEmail(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	email, _ := claims["email"].(string)
	return email, nil
}
