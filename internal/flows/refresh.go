package flows

import (
	"context"

	"github.com/MrEthical07/yggauth/yggdrasil"
)

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Remote Remote
}

// RefreshInput is the token pair to exchange plus the current selection.
type RefreshInput struct {
	AccessToken string
	ClientToken string
	Selected    *yggdrasil.Profile
}

// RefreshResult carries either the rotated access token or failure metadata.
type RefreshResult struct {
	Failure     FailureKind
	Err         error
	AccessToken string
	// Profiles is nil when the remote did not report availableProfiles.
	Profiles []yggdrasil.Profile
	Selected *yggdrasil.Profile
	User     *yggdrasil.User
}

// RunRefresh exchanges an access/client token pair for a new access token.
func RunRefresh(ctx context.Context, in RefreshInput, deps RefreshDeps) RefreshResult {
	if in.AccessToken == "" || in.ClientToken == "" {
		return RefreshResult{Failure: FailureInvalidToken, Err: yggdrasil.ErrInvalidToken}
	}

	sess, err := deps.Remote.Refresh(ctx, in.AccessToken, in.ClientToken, in.Selected)
	if err != nil {
		return RefreshResult{Failure: Classify(err), Err: err}
	}

	if sess == nil {
		return RefreshResult{Failure: FailureMalformedResponse, Err: malformed("no session", nil)}
	}
	if sess.AccessToken == "" {
		return RefreshResult{Failure: FailureMalformedResponse, Err: malformed("empty access token", nil)}
	}
	if sess.ClientToken != in.ClientToken {
		return RefreshResult{Failure: FailureMalformedResponse, Err: malformed("client token changed", nil)}
	}
	if err := checkProfiles(sess.AvailableProfiles); err != nil {
		return RefreshResult{Failure: FailureMalformedResponse, Err: malformed("profiles", err)}
	}
	if sess.SelectedProfile != nil && sess.SelectedProfile.ID == "" {
		return RefreshResult{Failure: FailureMalformedResponse, Err: malformed("selected profile without id", nil)}
	}

	return RefreshResult{
		AccessToken: sess.AccessToken,
		Profiles:    sess.AvailableProfiles,
		Selected:    sess.SelectedProfile,
		User:        sess.User,
	}
}
