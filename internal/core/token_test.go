package core

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestInspectToken_JWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, jwt.MapClaims{"sub": "a@example.com", "exp": exp.Unix()})

	info := InspectToken(token)
	assert.True(t, info.IsJWT)
	assert.Equal(t, len(token), info.Length)
	assert.Equal(t, "a@example.com", info.Subject)
	assert.True(t, info.ExpiresAt.Equal(exp))
	assert.False(t, info.Expired(time.Now()))
	assert.True(t, info.Expired(exp.Add(time.Minute)))
}

func TestInspectToken_NoExpiry(t *testing.T) {
	info := InspectToken(signedToken(t, jwt.MapClaims{"sub": "x"}))
	assert.True(t, info.IsJWT)
	assert.True(t, info.ExpiresAt.IsZero())
	assert.False(t, info.Expired(time.Now().Add(100*365*24*time.Hour)))
}

func TestInspectToken_Opaque(t *testing.T) {
	info := InspectToken("opaque-token")
	assert.False(t, info.IsJWT)
	assert.Equal(t, 12, info.Length)
	assert.False(t, info.Expired(time.Now()))

	assert.Equal(t, TokenInfo{}, InspectToken(""))
}
