// Package jwt inspects Yggdrasil access tokens. Modern authentication servers
// issue access tokens as signed JWTs; the signing key is private to the
// server, so this package only decodes claims (expiry, token id, selected
// profile) to make scheduling decisions such as refreshing before validating.
// It never treats decoded claims as proof of validity.
package jwt
