// Package yggdrasil implements the client side of the Yggdrasil token-issuing
// protocol: username/password exchange for an access token bound to a
// long-lived client token, plus validate, refresh and invalidate calls.
//
// # Error mapping
//
// Remote failures are reported as wrapped sentinels so callers can match them
// with errors.Is: [ErrInvalidCredentials], [ErrInvalidToken], [ErrExpiredToken],
// [ErrNetwork], [ErrMalformedResponse] and [ErrServerError]. Context
// cancellation is returned unchanged.
//
// # Architecture boundaries
//
// This package owns the wire encoding of the protocol. It does NOT hold account
// state, decide status transitions or retry requests; those belong to the
// yggauth Engine and its callers.
//
// # What this package must NOT do
//
//   - Import yggauth or any internal package (no upward imports).
//   - Log or otherwise persist secret tokens.
//   - Retry failed requests.
package yggdrasil
