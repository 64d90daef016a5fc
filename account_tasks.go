package yggauth

import (
	"context"
	"strconv"

	"github.com/MrEthical07/yggauth/internal/flows"
	"github.com/MrEthical07/yggauth/jwt"
	"github.com/MrEthical07/yggauth/yggdrasil"
)

// CreateLoginTask returns a task that exchanges username and password for a
// fresh token pair, the profile list and user metadata. The existing client
// token is reused; one is generated when the account has none.
func (a *Account) CreateLoginTask(username, password string) *Task {
	t := newTask(a, TaskLogin)
	t.username = username
	t.password = password
	return t
}

// CreateValidateTask returns a task that asks the server whether the current
// access token is still accepted.
func (a *Account) CreateValidateTask() *Task {
	return newTask(a, TaskValidate)
}

// CreateRefreshTask returns a task that trades the current token pair for a
// new access token.
func (a *Account) CreateRefreshTask() *Task {
	return newTask(a, TaskRefresh)
}

// CreateLogoutTask returns a task that invalidates the access token on the
// server (best effort) and clears the account's tokens and profiles.
func (a *Account) CreateLogoutTask() *Task {
	return newTask(a, TaskLogout)
}

// CreateCheckTask returns the task that brings the account back to a
// verified state: a Refresh when the access token is a JWT known to be
// expired, a Validate otherwise.
func (a *Account) CreateCheckTask() *Task {
	a.mu.RLock()
	access := a.tokens[TokenAccess]
	a.mu.RUnlock()

	if access != "" && jwt.Expired(access, a.engine.now(), a.engine.config.Validation.ExpiryLeeway) {
		return a.CreateRefreshTask()
	}
	return a.CreateValidateTask()
}

func (e *Engine) runLogin(ctx context.Context, in taskInput) taskOutcome {
	res := flows.RunLogin(ctx, flows.LoginInput{
		Username:    in.username,
		Password:    in.password,
		ClientToken: in.clientToken,
	}, e.flowDeps.Login)

	if res.Failure != flows.FailureNone {
		return taskOutcome{
			failure: res.Failure,
			err:     res.Err,
			apply: func(a *Account) {
				if res.Failure == flows.FailureInvalidCredentials {
					a.verified = false
				}
			},
		}
	}

	return taskOutcome{
		meta: map[string]string{"profiles": strconv.Itoa(len(res.Profiles))},
		apply: func(a *Account) {
			// The login username is the account's identity once set.
			if a.login == "" {
				a.login = in.username
			}
			a.setTokenLocked(TokenClient, res.ClientToken)
			a.setTokenLocked(TokenAccess, res.AccessToken)
			a.replaceProfilesLocked(profilesFromRemote(res.Profiles))
			a.adoptSelectionLocked(res.Selected)
			a.user = cloneUser(res.User)
			a.verified = true
			a.touchLocked()
		},
	}
}

func (e *Engine) runValidate(ctx context.Context, in taskInput) taskOutcome {
	res := flows.RunValidate(ctx, in.accessToken, in.clientToken, e.flowDeps.Validate)
	if res.Failure != flows.FailureNone {
		return taskOutcome{
			failure: res.Failure,
			err:     res.Err,
			apply:   e.tokenFailure(res.Failure),
		}
	}
	return taskOutcome{
		apply: func(a *Account) {
			if !a.verified {
				a.verified = true
				a.touchLocked()
			}
		},
	}
}

func (e *Engine) runRefresh(ctx context.Context, in taskInput) taskOutcome {
	res := flows.RunRefresh(ctx, flows.RefreshInput{
		AccessToken: in.accessToken,
		ClientToken: in.clientToken,
		Selected:    in.selected,
	}, e.flowDeps.Refresh)
	if res.Failure != flows.FailureNone {
		return taskOutcome{
			failure: res.Failure,
			err:     res.Err,
			apply:   e.tokenFailure(res.Failure),
		}
	}

	meta := map[string]string{"profiles_reported": strconv.FormatBool(res.Profiles != nil)}
	return taskOutcome{
		meta: meta,
		apply: func(a *Account) {
			a.setTokenLocked(TokenAccess, res.AccessToken)
			if res.Profiles != nil {
				a.replaceProfilesLocked(profilesFromRemote(res.Profiles))
			} else if res.Selected != nil {
				a.renameProfileLocked(res.Selected.ID, res.Selected.Name)
			}
			a.adoptSelectionLocked(res.Selected)
			if res.User != nil {
				a.user = cloneUser(res.User)
			}
			a.verified = true
			a.touchLocked()
		},
	}
}

func (e *Engine) runLogout(ctx context.Context, in taskInput) taskOutcome {
	res := flows.RunLogout(ctx, in.accessToken, in.clientToken, e.flowDeps.Logout)
	if flows.Classify(res.InvalidateErr) == flows.FailureCancelled {
		return taskOutcome{failure: flows.FailureCancelled, err: res.InvalidateErr}
	}

	meta := map[string]string{"remote_invalidated": strconv.FormatBool(res.Attempted && res.InvalidateErr == nil)}
	if res.InvalidateErr != nil {
		e.metrics.Inc(MetricLogoutInvalidateFailure)
		meta["invalidate_failure"] = flows.Classify(res.InvalidateErr).String()
	}
	return taskOutcome{
		meta: meta,
		apply: func(a *Account) {
			a.tokens = make(map[string]string, 2)
			a.profiles = nil
			a.current = ""
			a.user = nil
			a.verified = false
			a.touchLocked()
		},
	}
}

// tokenFailure is the account transition for a failed Validate or Refresh.
// A rejected token is cleared and the account drops to not verified; the
// client token survives so a later login can reuse it. Transient failures
// keep the verification flag unless configured otherwise.
func (e *Engine) tokenFailure(kind flows.FailureKind) func(*Account) {
	switch {
	case kind.Credential():
		return func(a *Account) {
			a.verified = false
			if a.tokens[TokenAccess] != "" {
				a.setTokenLocked(TokenAccess, "")
				a.touchLocked()
			}
		}
	case kind == flows.FailureNetwork && e.config.Validation.DowngradeOnNetworkError:
		return func(a *Account) {
			a.verified = false
		}
	default:
		return nil
	}
}

// adoptSelectionLocked makes the server's selected profile current when the
// account has no valid selection of its own.
func (a *Account) adoptSelectionLocked(selected *yggdrasil.Profile) {
	if selected == nil || a.current != "" {
		return
	}
	if a.indexLocked(selected.ID) >= 0 {
		a.current = selected.ID
	}
}

func (a *Account) renameProfileLocked(id, name string) {
	if name == "" {
		return
	}
	i := a.indexLocked(id)
	if i < 0 || a.profiles[i].name == name {
		return
	}
	next := make([]*MojangProfile, len(a.profiles))
	copy(next, a.profiles)
	next[i] = next[i].withName(name)
	a.profiles = next
}
