package internaldefs

import (
	"github.com/MrEthical07/yggauth"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   yggauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   yggauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: yggauth.MetricLoginSuccess, Name: "yggauth_login_success_total", Help: "Login tasks that succeeded."},
	{ID: yggauth.MetricLoginFailure, Name: "yggauth_login_failure_total", Help: "Login tasks that failed."},
	{ID: yggauth.MetricLoginInvalidCredentials, Name: "yggauth_login_invalid_credentials_total", Help: "Login tasks rejected for invalid credentials."},
	{ID: yggauth.MetricValidateSuccess, Name: "yggauth_validate_success_total", Help: "Validate tasks that succeeded."},
	{ID: yggauth.MetricValidateFailure, Name: "yggauth_validate_failure_total", Help: "Validate tasks that failed."},
	{ID: yggauth.MetricValidateInvalidToken, Name: "yggauth_validate_invalid_token_total", Help: "Validate tasks whose access token was rejected."},
	{ID: yggauth.MetricRefreshSuccess, Name: "yggauth_refresh_success_total", Help: "Refresh tasks that succeeded."},
	{ID: yggauth.MetricRefreshFailure, Name: "yggauth_refresh_failure_total", Help: "Refresh tasks that failed."},
	{ID: yggauth.MetricRefreshInvalidToken, Name: "yggauth_refresh_invalid_token_total", Help: "Refresh tasks whose token pair was rejected."},
	{ID: yggauth.MetricLogout, Name: "yggauth_logout_total", Help: "Logout tasks that cleared an account."},
	{ID: yggauth.MetricLogoutInvalidateFailure, Name: "yggauth_logout_invalidate_failure_total", Help: "Logouts whose remote invalidation failed."},
	{ID: yggauth.MetricTaskCancelled, Name: "yggauth_task_cancelled_total", Help: "Tasks cancelled while running."},
	{ID: yggauth.MetricTaskAlreadyRunning, Name: "yggauth_task_already_running_total", Help: "Task starts refused because another task owned the account."},
	{ID: yggauth.MetricTaskRejected, Name: "yggauth_task_rejected_total", Help: "Task starts refused by the executor."},
	{ID: yggauth.MetricNetworkError, Name: "yggauth_network_error_total", Help: "Tasks that failed with a network error."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: yggauth.MetricTaskLatency, Name: "yggauth_task_latency_seconds", Help: "Task latency from start to completion."},
}

// HistogramBounds are the bucket upper bounds in seconds. The last bucket is
// +Inf.
var HistogramBounds = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// HistogramBoundLabels are the le labels matching HistogramBounds, plus +Inf.
var HistogramBoundLabels = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// HistogramBoundSuffix renders HistogramBoundLabels in instrument-name form.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// AuditDroppedName is the counter of audit events lost to backpressure.
const (
	AuditDroppedName = "yggauth_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// NormalizeBuckets copies raw into a fixed eight-bucket array.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
