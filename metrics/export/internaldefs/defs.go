package internaldefs

import (
	"github.com/MrEthical07/portalgate"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   portalgate.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   portalgate.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: portalgate.MetricLoginSuccess, Name: "portalgate_login_success_total", Help: "Logins that produced a session."},
	{ID: portalgate.MetricLoginFailure, Name: "portalgate_login_failure_total", Help: "Logins rejected for bad credentials."},
	{ID: portalgate.MetricLoginBackendError, Name: "portalgate_login_backend_error_total", Help: "Logins failed by the credential backend."},
	{ID: portalgate.MetricSessionCreated, Name: "portalgate_session_created_total", Help: "Created sessions."},
	{ID: portalgate.MetricCheckAllowed, Name: "portalgate_check_allowed_total", Help: "Gateway checks answered with allow."},
	{ID: portalgate.MetricCheckDenied, Name: "portalgate_check_denied_total", Help: "Gateway checks answered with deny."},
	{ID: portalgate.MetricLogout, Name: "portalgate_logout_total", Help: "Logouts that revoked a live session."},
	{ID: portalgate.MetricAssertionIssued, Name: "portalgate_assertion_issued_total", Help: "Signed assertions attached to allowed checks."},
	{ID: portalgate.MetricAssertionFailure, Name: "portalgate_assertion_failure_total", Help: "Assertion signing failures."},
}

var HistogramDefs = []HistogramDef{
	{ID: portalgate.MetricCheckLatency, Name: "portalgate_check_latency_seconds", Help: "Gateway check latency histogram."},
}

// Session store gauges and counters, read from SessionStats rather than the
// metrics snapshot.
const (
	SessionsLiveName    = "portalgate_sessions_live"
	SessionsLiveHelp    = "Sessions currently held in the store, including expired ones not yet swept."
	SessionsExpiredName = "portalgate_sessions_expired_total"
	SessionsExpiredHelp = "Sessions removed by the expiry sweep."
	SessionsRevokedName = "portalgate_sessions_revoked_total"
	SessionsRevokedHelp = "Sessions removed by logout."
	AuditDroppedName    = "portalgate_audit_dropped_total"
	AuditDroppedHelp    = "Dropped audit events due to dispatcher backpressure."
)

var HistogramBounds = []string{
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.005",
	"0.025",
	"0.25",
	"+Inf",
}

var HistogramBoundSuffix = []string{
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_005",
	"0_025",
	"0_25",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling.
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
