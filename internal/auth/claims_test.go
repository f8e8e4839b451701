package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func TestParseIdentity(t *testing.T) {
	tok := signedToken(t, Claims{UserUUID: "u-123", Username: "alice"})

	c, err := ParseIdentity(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-123", c.UserUUID)
	assert.Equal(t, "alice", c.Username)
}

func TestParseIdentityMissingUser(t *testing.T) {
	tok := signedToken(t, Claims{Username: "alice"})
	_, err := ParseIdentity(tok)
	assert.Error(t, err)
}

func TestParseIdentityGarbage(t *testing.T) {
	_, err := ParseIdentity("not-a-token")
	assert.Error(t, err)
}
