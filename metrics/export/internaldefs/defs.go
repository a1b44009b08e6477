package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricOperationSuccess, Name: "gosession_operation_success_total", Help: "Operations that completed, possibly after retries."},
	{ID: goSession.MetricOperationFailure, Name: "gosession_operation_failure_total", Help: "Operations that returned an error."},
	{ID: goSession.MetricFailureNetwork, Name: "gosession_failure_network_total", Help: "Failed operations classified NETWORK."},
	{ID: goSession.MetricFailureTimeout, Name: "gosession_failure_timeout_total", Help: "Failed operations classified TIMEOUT."},
	{ID: goSession.MetricFailureValidation, Name: "gosession_failure_validation_total", Help: "Failed operations classified VALIDATION."},
	{ID: goSession.MetricFailureAuthentication, Name: "gosession_failure_authentication_total", Help: "Failed operations classified AUTHENTICATION."},
	{ID: goSession.MetricFailureAuthorization, Name: "gosession_failure_authorization_total", Help: "Failed operations classified AUTHORIZATION."},
	{ID: goSession.MetricFailureNotFound, Name: "gosession_failure_not_found_total", Help: "Failed operations classified NOT_FOUND."},
	{ID: goSession.MetricFailureServer, Name: "gosession_failure_server_total", Help: "Failed operations classified SERVER."},
	{ID: goSession.MetricFailureUnknown, Name: "gosession_failure_unknown_total", Help: "Failed operations classified UNKNOWN."},
	{ID: goSession.MetricRetryAttempt, Name: "gosession_retry_attempt_total", Help: "Scheduled retries."},
	{ID: goSession.MetricRetryRecovered, Name: "gosession_retry_recovered_total", Help: "Operations that succeeded after at least one retry."},
	{ID: goSession.MetricRetryExhausted, Name: "gosession_retry_exhausted_total", Help: "Operations that ran out of attempts."},
	{ID: goSession.MetricRetryAborted, Name: "gosession_retry_aborted_total", Help: "Retries dropped because the session ended."},
	{ID: goSession.MetricHTTPRequest, Name: "gosession_http_request_total", Help: "HTTP round trips through the pipeline."},
	{ID: goSession.MetricHTTPFailure, Name: "gosession_http_failure_total", Help: "HTTP round trips that failed or returned an error status."},
	{ID: goSession.MetricForcedLogout, Name: "gosession_forced_logout_total", Help: "Sessions ended by the session guard."},
	{ID: goSession.MetricLogoutSuppressed, Name: "gosession_logout_suppressed_total", Help: "Authentication failures seen after the session had ended."},
	{ID: goSession.MetricAuthRejected, Name: "gosession_auth_rejected_total", Help: "Authentication failures with a still valid credential."},
	{ID: goSession.MetricNotificationSent, Name: "gosession_notification_sent_total", Help: "User-facing notifications emitted."},
	{ID: goSession.MetricLogin, Name: "gosession_login_total", Help: "Credentials stored by Login."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "User-initiated logouts."},
}

var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricRequestLatency, Name: "gosession_request_latency_seconds", Help: "HTTP round-trip latency."},
}

// DroppedName is the counter for notifications lost to a full buffer.
const (
	DroppedName = "gosession_notification_dropped_total"
	DroppedHelp = "Notifications dropped due to dispatcher backpressure."
)

// HistogramUpperBounds are the finite bucket bounds in seconds; the last
// bucket is +Inf.
var HistogramUpperBounds = []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

var HistogramBoundSuffix = []string{
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
