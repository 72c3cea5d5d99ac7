package internaldefs

import (
	gosession "github.com/MrEthical07/goSession"
)

// CounterDef defines a public type used by goSession APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   gosession.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goSession APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   gosession.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session core.
var CounterDefs = []CounterDef{
	{ID: gosession.MetricHandshakeSuccess, Name: "gosession_handshake_success_total", Help: "Initialization handshakes that completed."},
	{ID: gosession.MetricHandshakeFailure, Name: "gosession_handshake_failure_total", Help: "Initialization handshakes that failed."},
	{ID: gosession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful login attempts."},
	{ID: gosession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Failed login attempts."},
	{ID: gosession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Successful token refreshes."},
	{ID: gosession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: gosession.MetricRefreshCoalesced, Name: "gosession_refresh_coalesced_total", Help: "Refresh callers that joined an in-flight refresh."},
	{ID: gosession.MetricRefreshForced, Name: "gosession_refresh_forced_total", Help: "Forced refreshes that bypassed the expiry check."},
	{ID: gosession.MetricRefreshThrottled, Name: "gosession_refresh_throttled_total", Help: "Forced refreshes denied by the transport rate limiter."},
	{ID: gosession.MetricScheduleArmed, Name: "gosession_schedule_armed_total", Help: "Proactive refresh timers armed."},
	{ID: gosession.MetricScheduleSuperseded, Name: "gosession_schedule_superseded_total", Help: "Proactive refresh timers superseded before firing."},
	{ID: gosession.MetricScheduleFired, Name: "gosession_schedule_fired_total", Help: "Proactive refresh timers that fired."},
	{ID: gosession.MetricScheduleSkipped, Name: "gosession_schedule_skipped_total", Help: "Scheduled refreshes skipped because the token was still fresh."},
	{ID: gosession.MetricTokenExpiredSignal, Name: "gosession_token_expired_total", Help: "Provider signals that the session is dead."},
	{ID: gosession.MetricTokensCleared, Name: "gosession_tokens_cleared_total", Help: "Token clear operations."},
	{ID: gosession.MetricStorageReadError, Name: "gosession_storage_read_error_total", Help: "Durable tier read failures swallowed as missing tokens."},
	{ID: gosession.MetricStorageWriteError, Name: "gosession_storage_write_error_total", Help: "Durable tier write failures."},
	{ID: gosession.MetricProfileSuccess, Name: "gosession_profile_success_total", Help: "Successful profile fetches."},
	{ID: gosession.MetricProfileFailure, Name: "gosession_profile_failure_total", Help: "Failed profile fetches."},
	{ID: gosession.MetricEmptyRoleSet, Name: "gosession_empty_role_set_total", Help: "Sessions rejected because no roles could be derived."},
	{ID: gosession.MetricListenerPanic, Name: "gosession_listener_panic_total", Help: "Recovered event listener panics."},
	{ID: gosession.MetricLogout, Name: "gosession_logout_total", Help: "Logout operations."},
	{ID: gosession.MetricLogoutRemoteFailure, Name: "gosession_logout_remote_failure_total", Help: "Logouts whose remote revocation failed."},
}

// HistogramDefs is an exported constant or variable used by the session core.
var HistogramDefs = []HistogramDef{
	{ID: gosession.MetricRefreshLatency, Name: "gosession_refresh_latency_seconds", Help: "Refresh latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session core.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the session core.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
