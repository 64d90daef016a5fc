package yggauth

import (
	"errors"

	"github.com/MrEthical07/yggauth/store"
	"github.com/MrEthical07/yggauth/yggdrasil"
)

var (
	// ErrInvalidCredentials is reported by a Login task the server rejected.
	ErrInvalidCredentials = yggdrasil.ErrInvalidCredentials
	// ErrInvalidToken is reported when the access token is no longer accepted.
	ErrInvalidToken = yggdrasil.ErrInvalidToken
	// ErrExpiredToken is reported when the server says the access token expired.
	ErrExpiredToken = yggdrasil.ErrExpiredToken
	// ErrNetwork is reported for transport failures and timeouts. Callers may
	// retry by creating a new task.
	ErrNetwork = yggdrasil.ErrNetwork
	// ErrMalformedResponse is reported when the server violates the protocol.
	ErrMalformedResponse = yggdrasil.ErrMalformedResponse
	// ErrServerError is reported for 5xx-equivalent server failures.
	ErrServerError = yggdrasil.ErrServerError

	// ErrTaskAlreadyRunning is returned by Task.Start while another task owns the account.
	ErrTaskAlreadyRunning = errors.New("task already running")
	// ErrProfileNotFound is returned when selecting a profile id the account does not have.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidTokenName is returned for token names other than clientToken and accessToken.
	ErrInvalidTokenName = errors.New("invalid token name")
	// ErrInvalidProfiles is returned by SetProfiles for empty or duplicate profile ids.
	ErrInvalidProfiles = errors.New("invalid profile list")

	// ErrTaskNotStartable is returned by Task.Start on a task that already left the created state.
	ErrTaskNotStartable = errors.New("task not startable")
	// ErrTaskCancelled is the result of a cancelled task.
	ErrTaskCancelled = errors.New("task cancelled")
	// ErrAccountClosed is returned when the account was closed or released before the task could use it.
	ErrAccountClosed = errors.New("account closed")
	// ErrTaskPanicked is the result of a task whose remote call or flow panicked.
	ErrTaskPanicked = errors.New("task panicked")
	// ErrExecutorRejected is returned when the executor refused to run a task.
	ErrExecutorRejected = errors.New("executor rejected task")
	// ErrEngineNotReady is returned by a nil or closed Engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrStoreNotConfigured is returned by persistence methods of an Engine built without a store.
	ErrStoreNotConfigured = errors.New("account store not configured")
	// ErrAccountNotFound is returned by Restore for unknown logins.
	ErrAccountNotFound = store.ErrNotFound
)
