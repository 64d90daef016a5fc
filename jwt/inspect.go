package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken is returned when an access token is not a JWT. Legacy
// servers issue opaque hex tokens; callers should treat the expiry as unknown.
var ErrOpaqueToken = errors.New("access token is not a jwt")

// AccessClaims is the claim set carried by a Yggdrasil access token.
type AccessClaims struct {
	// TokenID is the server-side token identifier ("yggt").
	TokenID string `json:"yggt,omitempty"`
	// SelectedProfile is the profile the token was issued for ("spr").
	SelectedProfile string `json:"spr,omitempty"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// Inspect decodes the claims of accessToken without verifying its signature.
func Inspect(accessToken string) (*AccessClaims, error) {
	accessToken = strings.TrimSpace(accessToken)
	if strings.Count(accessToken, ".") != 2 {
		return nil, ErrOpaqueToken
	}

	claims := &AccessClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ExpiresAt returns the expiry of accessToken, if it carries one.
func ExpiresAt(accessToken string) (time.Time, bool) {
	claims, err := Inspect(accessToken)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether accessToken is known to expire before now+leeway.
// Tokens without a readable expiry are never reported as expired.
func Expired(accessToken string, now time.Time, leeway time.Duration) bool {
	exp, ok := ExpiresAt(accessToken)
	if !ok {
		return false
	}
	return !now.Add(leeway).Before(exp)
}
