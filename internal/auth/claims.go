// Package auth extracts the local user's identity from the bearer token the
// client already holds. The token is verified by the server on every request;
// the client only reads the claims.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserUUID string `json:"user_uuid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ParseIdentity decodes the token's claims without verifying the signature.
func ParseIdentity(token string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, err
	}
	if claims.UserUUID == "" {
		return nil, errors.New("token carries no user_uuid claim")
	}
	return &claims, nil
}
