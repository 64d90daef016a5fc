package flows

import (
	"context"
	"strings"

	"github.com/MrEthical07/yggauth/yggdrasil"
)

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Remote         Remote
	NewClientToken func() (string, error)
}

// LoginInput is the flow-local login request shape.
type LoginInput struct {
	Username string
	Password string
	// ClientToken is the account's existing client token, if any.
	ClientToken string
}

// LoginResult carries either the issued session or failure metadata.
type LoginResult struct {
	Failure     FailureKind
	Err         error
	AccessToken string
	ClientToken string
	Profiles    []yggdrasil.Profile
	Selected    *yggdrasil.Profile
	User        *yggdrasil.User
}

// RunLogin exchanges credentials for a token pair and validates the response.
func RunLogin(ctx context.Context, in LoginInput, deps LoginDeps) LoginResult {
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return LoginResult{Failure: FailureInvalidCredentials, Err: yggdrasil.ErrInvalidCredentials}
	}

	clientToken := in.ClientToken
	if clientToken == "" {
		var err error
		clientToken, err = deps.NewClientToken()
		if err != nil {
			return LoginResult{Failure: FailureUnknown, Err: err}
		}
	}

	sess, err := deps.Remote.Authenticate(ctx, in.Username, in.Password, clientToken)
	if err != nil {
		return LoginResult{Failure: Classify(err), Err: err}
	}

	if sess == nil {
		return LoginResult{Failure: FailureMalformedResponse, Err: malformed("no session", nil)}
	}
	if sess.AccessToken == "" {
		return LoginResult{Failure: FailureMalformedResponse, Err: malformed("empty access token", nil)}
	}
	if sess.ClientToken != clientToken {
		return LoginResult{Failure: FailureMalformedResponse, Err: malformed("client token changed", nil)}
	}
	if err := checkProfiles(sess.AvailableProfiles); err != nil {
		return LoginResult{Failure: FailureMalformedResponse, Err: malformed("profiles", err)}
	}

	return LoginResult{
		AccessToken: sess.AccessToken,
		ClientToken: clientToken,
		Profiles:    sess.AvailableProfiles,
		Selected:    sess.SelectedProfile,
		User:        sess.User,
	}
}
