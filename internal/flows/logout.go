package flows

import "context"

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Remote Remote
	Warn   func(string, ...any)
}

// LogoutResult describes the best-effort remote invalidation. Logout itself
// never fails.
type LogoutResult struct {
	Attempted     bool
	InvalidateErr error
}

// RunLogout invalidates accessToken on the remote. Failures are reported in
// the result but do not fail the flow; the caller clears local state anyway.
func RunLogout(ctx context.Context, accessToken, clientToken string, deps LogoutDeps) LogoutResult {
	if accessToken == "" {
		return LogoutResult{}
	}

	err := deps.Remote.Invalidate(ctx, accessToken, clientToken)
	if err != nil && deps.Warn != nil {
		deps.Warn("yggauth: access token invalidation failed", "failure", Classify(err).String())
	}
	return LogoutResult{Attempted: true, InvalidateErr: err}
}
