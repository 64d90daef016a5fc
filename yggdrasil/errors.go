package yggdrasil

import "errors"

var (
	// ErrInvalidCredentials is returned when the remote rejects a username/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when the remote no longer accepts an access token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the remote reports the access token as expired.
	ErrExpiredToken = errors.New("expired token")
	// ErrNetwork is returned for transport failures and timeouts.
	ErrNetwork = errors.New("network error")
	// ErrMalformedResponse is returned when the remote violates the protocol contract.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrServerError is returned for 5xx-equivalent remote failures.
	ErrServerError = errors.New("server error")
)
