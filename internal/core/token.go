package core

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo describes an access token without verifying it
type TokenInfo struct {
	Length    int
	IsJWT     bool
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has passed
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// InspectToken decodes the claims of a JWT access token.
// The signature is not checked; opaque tokens yield IsJWT=false.
func InspectToken(token string) TokenInfo {
	info := TokenInfo{Length: len(token)}
	if token == "" {
		return info
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return info
	}
	info.IsJWT = true

	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}

	return info
}
