package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/yggauth/yggdrasil"
)

// Remote is the token-issuing server as seen by the flows. *yggdrasil.Client
// satisfies it.
type Remote interface {
	Authenticate(ctx context.Context, username, password, clientToken string) (*yggdrasil.Session, error)
	Validate(ctx context.Context, accessToken, clientToken string) error
	Refresh(ctx context.Context, accessToken, clientToken string, selected *yggdrasil.Profile) (*yggdrasil.Session, error)
	Invalidate(ctx context.Context, accessToken, clientToken string) error
}

// Deps groups flow dependency sets. Root engine builds this once and hands
// the matching set to each task.
type Deps struct {
	Login    LoginDeps
	Validate ValidateDeps
	Refresh  RefreshDeps
	Logout   LogoutDeps
}

// FailureKind classifies flow failures for root-level mapping onto account
// state transitions.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureInvalidCredentials
	FailureInvalidToken
	FailureExpiredToken
	FailureNetwork
	FailureMalformedResponse
	FailureServer
	FailureCancelled
	FailureUnknown
)

var failureNames = [...]string{
	FailureNone:               "none",
	FailureInvalidCredentials: "invalid_credentials",
	FailureInvalidToken:       "invalid_token",
	FailureExpiredToken:       "expired_token",
	FailureNetwork:            "network",
	FailureMalformedResponse:  "malformed_response",
	FailureServer:             "server_error",
	FailureCancelled:          "cancelled",
	FailureUnknown:            "unknown",
}

func (k FailureKind) String() string {
	if k < 0 || int(k) >= len(failureNames) {
		return "unknown"
	}
	return failureNames[k]
}

// Credential reports whether k means the server rejected the credentials or
// token outright, as opposed to a transient or protocol failure.
func (k FailureKind) Credential() bool {
	switch k {
	case FailureInvalidCredentials, FailureInvalidToken, FailureExpiredToken:
		return true
	default:
		return false
	}
}

// Classify maps an error returned by a Remote onto a FailureKind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, context.Canceled):
		return FailureCancelled
	case errors.Is(err, yggdrasil.ErrInvalidCredentials):
		return FailureInvalidCredentials
	case errors.Is(err, yggdrasil.ErrExpiredToken):
		return FailureExpiredToken
	case errors.Is(err, yggdrasil.ErrInvalidToken):
		return FailureInvalidToken
	case errors.Is(err, yggdrasil.ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		return FailureNetwork
	case errors.Is(err, yggdrasil.ErrMalformedResponse):
		return FailureMalformedResponse
	case errors.Is(err, yggdrasil.ErrServerError):
		return FailureServer
	default:
		return FailureUnknown
	}
}

// checkProfiles enforces that every profile has an id and that ids are unique.
func checkProfiles(profiles []yggdrasil.Profile) error {
	seen := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		if p.ID == "" {
			return errors.New("profile without id")
		}
		if _, dup := seen[p.ID]; dup {
			return errors.New("duplicate profile id " + p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

func malformed(reason string, err error) error {
	if err != nil {
		return errors.Join(yggdrasil.ErrMalformedResponse, errors.New(reason+": "+err.Error()))
	}
	return errors.Join(yggdrasil.ErrMalformedResponse, errors.New(reason))
}
