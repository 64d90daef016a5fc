package yggauth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	internalaudit "github.com/MrEthical07/yggauth/internal/audit"
	"github.com/MrEthical07/yggauth/internal/flows"
)

const (
	auditOutcomeSuccess   = "success"
	auditOutcomeFailure   = "failure"
	auditOutcomeCancelled = "cancelled"

	auditErrAccountClosed = "account_closed"
)

func auditEventType(kind TaskKind, outcome string) string {
	return "task_" + kind.String() + "_" + outcome
}

// recordOutcome counts, audits and logs a task that reached a terminal
// state. It runs outside every lock.
func (e *Engine) recordOutcome(t *Task, out taskOutcome, profileID string) {
	outcome := auditOutcomeSuccess
	errCode := ""
	switch {
	case out.failure == flows.FailureCancelled:
		outcome = auditOutcomeCancelled
		errCode = out.failure.String()
	case errors.Is(out.err, ErrAccountClosed):
		outcome = auditOutcomeFailure
		errCode = auditErrAccountClosed
	case out.failure != flows.FailureNone:
		outcome = auditOutcomeFailure
		errCode = out.failure.String()
	}

	e.countOutcome(t.kind, outcome, out.failure)
	if !t.started.IsZero() {
		e.metrics.Observe(MetricTaskLatency, e.now().Sub(t.started))
	}

	queued := e.audit.Emit(context.Background(), internalaudit.Event{
		Timestamp: e.now(),
		EventType: auditEventType(t.kind, outcome),
		Account:   t.login,
		TaskID:    t.id,
		TaskKind:  t.kind.String(),
		ProfileID: profileID,
		Success:   outcome == auditOutcomeSuccess,
		Error:     errCode,
		Metadata:  out.meta,
	})
	if !queued && e.audit != nil {
		e.logger.Debug("yggauth: audit event dropped", zap.String("task_id", t.id))
	}

	fields := []zap.Field{
		zap.String("task_id", t.id),
		zap.Stringer("task_kind", t.kind),
		zap.String("account", t.login),
	}
	switch outcome {
	case auditOutcomeSuccess:
		e.logger.Debug("yggauth: task succeeded", fields...)
	case auditOutcomeCancelled:
		e.logger.Debug("yggauth: task cancelled", fields...)
	default:
		e.logger.Warn("yggauth: task failed", append(fields, zap.String("failure", errCode))...)
	}
}

func (e *Engine) countOutcome(kind TaskKind, outcome string, failure flows.FailureKind) {
	if outcome == auditOutcomeCancelled {
		e.metrics.Inc(MetricTaskCancelled)
		return
	}
	if failure == flows.FailureNetwork {
		e.metrics.Inc(MetricNetworkError)
	}

	ok := outcome == auditOutcomeSuccess
	switch kind {
	case TaskLogin:
		if ok {
			e.metrics.Inc(MetricLoginSuccess)
			return
		}
		e.metrics.Inc(MetricLoginFailure)
		if failure == flows.FailureInvalidCredentials {
			e.metrics.Inc(MetricLoginInvalidCredentials)
		}
	case TaskValidate:
		if ok {
			e.metrics.Inc(MetricValidateSuccess)
			return
		}
		e.metrics.Inc(MetricValidateFailure)
		if failure.Credential() {
			e.metrics.Inc(MetricValidateInvalidToken)
		}
	case TaskRefresh:
		if ok {
			e.metrics.Inc(MetricRefreshSuccess)
			return
		}
		e.metrics.Inc(MetricRefreshFailure)
		if failure.Credential() {
			e.metrics.Inc(MetricRefreshInvalidToken)
		}
	case TaskLogout:
		if ok {
			e.metrics.Inc(MetricLogout)
		}
	}
}
