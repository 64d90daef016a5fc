package yggauth

import (
	"context"

	"github.com/MrEthical07/yggauth/document"
	internalaudit "github.com/MrEthical07/yggauth/internal/audit"
	internalmetrics "github.com/MrEthical07/yggauth/internal/metrics"
	"github.com/MrEthical07/yggauth/yggdrasil"
)

// AccountStatus is the derived verification state of an account.
type AccountStatus uint8

const (
	// StatusNotVerified means no task has confirmed the current access token.
	StatusNotVerified AccountStatus = iota
	// StatusVerified means the last authentication-relevant task confirmed the
	// access token with the server.
	StatusVerified
)

func (s AccountStatus) String() string {
	if s == StatusVerified {
		return "verified"
	}
	return "not_verified"
}

// TaskKind identifies what a task does.
type TaskKind uint8

const (
	TaskLogin TaskKind = iota
	TaskValidate
	TaskRefresh
	TaskLogout
)

func (k TaskKind) String() string {
	switch k {
	case TaskLogin:
		return "login"
	case TaskValidate:
		return "validate"
	case TaskRefresh:
		return "refresh"
	case TaskLogout:
		return "logout"
	default:
		return "unknown"
	}
}

// TaskState is the lifecycle position of a task. Succeeded, Failed and
// Cancelled are terminal.
type TaskState uint8

const (
	TaskCreated TaskState = iota
	TaskRunning
	TaskSucceeded
	TaskFailed
	TaskCancelled
)

func (s TaskState) String() string {
	switch s {
	case TaskCreated:
		return "created"
	case TaskRunning:
		return "running"
	case TaskSucceeded:
		return "succeeded"
	case TaskFailed:
		return "failed"
	case TaskCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a sink state.
func (s TaskState) Terminal() bool {
	return s == TaskSucceeded || s == TaskFailed || s == TaskCancelled
}

// Token names understood by Account.Token and Account.SetToken.
const (
	TokenClient = document.TokenClient
	TokenAccess = document.TokenAccess
)

// User is the server-asserted identity of the account owner.
type User = yggdrasil.User

// UserProperty is one server-asserted user property.
type UserProperty = yggdrasil.UserProperty

// Authenticator is the remote token-issuing server. *yggdrasil.Client
// implements it; tests substitute fakes.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password, clientToken string) (*yggdrasil.Session, error)
	Validate(ctx context.Context, accessToken, clientToken string) error
	Refresh(ctx context.Context, accessToken, clientToken string, selected *yggdrasil.Profile) (*yggdrasil.Session, error)
	Invalidate(ctx context.Context, accessToken, clientToken string) error
}

// Executor runs task bodies asynchronously. See the runner package.
type Executor interface {
	Submit(fn func()) error
}

// AccountStore persists account documents. *store.Store implements it.
type AccountStore interface {
	Save(ctx context.Context, doc *document.Document) error
	Get(ctx context.Context, login string) (*document.Document, error)
	Delete(ctx context.Context, login string) error
	List(ctx context.Context) ([]string, error)
}

// AuditEvent is the audit record emitted for every finished task.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the engine dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink writes audit events into a buffered channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON audit event per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// ZapSink logs audit events through zap.
type ZapSink = internalaudit.ZapSink

var (
	// NewChannelSink creates a ChannelSink with the given buffer.
	NewChannelSink = internalaudit.NewChannelSink
	// NewJSONWriterSink creates a JSONWriterSink.
	NewJSONWriterSink = internalaudit.NewJSONWriterSink
	// NewZapSink creates a ZapSink.
	NewZapSink = internalaudit.NewZapSink
)

// MetricID identifies one engine counter.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess            = internalmetrics.MetricLoginSuccess
	MetricLoginFailure            = internalmetrics.MetricLoginFailure
	MetricLoginInvalidCredentials = internalmetrics.MetricLoginInvalidCredentials
	MetricValidateSuccess         = internalmetrics.MetricValidateSuccess
	MetricValidateFailure         = internalmetrics.MetricValidateFailure
	MetricValidateInvalidToken    = internalmetrics.MetricValidateInvalidToken
	MetricRefreshSuccess          = internalmetrics.MetricRefreshSuccess
	MetricRefreshFailure          = internalmetrics.MetricRefreshFailure
	MetricRefreshInvalidToken     = internalmetrics.MetricRefreshInvalidToken
	MetricLogout                  = internalmetrics.MetricLogout
	MetricLogoutInvalidateFailure = internalmetrics.MetricLogoutInvalidateFailure
	MetricTaskCancelled           = internalmetrics.MetricTaskCancelled
	MetricTaskAlreadyRunning      = internalmetrics.MetricTaskAlreadyRunning
	MetricTaskRejected            = internalmetrics.MetricTaskRejected
	MetricNetworkError            = internalmetrics.MetricNetworkError
	MetricTaskLatency             = internalmetrics.MetricTaskLatency
)

// Metrics holds the engine counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of the engine counters.
type MetricsSnapshot = internalmetrics.Snapshot
