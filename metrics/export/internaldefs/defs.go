package internaldefs

import (
	deliveryAuth "github.com/MrEthical07/deliveryAuth"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   deliveryAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   deliveryAuth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: deliveryAuth.MetricLoginSuccess, Name: "deliveryauth_login_success_total", Help: "Successful login attempts."},
	{ID: deliveryAuth.MetricLoginFailure, Name: "deliveryauth_login_failure_total", Help: "Login attempts rejected for bad credentials."},
	{ID: deliveryAuth.MetricLoginInactive, Name: "deliveryauth_login_inactive_total", Help: "Login attempts on inactive accounts."},
	{ID: deliveryAuth.MetricLoginRateLimited, Name: "deliveryauth_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: deliveryAuth.MetricRefreshSuccess, Name: "deliveryauth_refresh_success_total", Help: "Successful refresh operations."},
	{ID: deliveryAuth.MetricRefreshFailure, Name: "deliveryauth_refresh_failure_total", Help: "Refresh attempts with unknown, revoked or expired tokens."},
	{ID: deliveryAuth.MetricRefreshReuseDetected, Name: "deliveryauth_refresh_reuse_detected_total", Help: "Refresh tokens presented after rotation."},
	{ID: deliveryAuth.MetricRefreshInactive, Name: "deliveryauth_refresh_inactive_total", Help: "Refresh attempts for missing or inactive accounts."},
	{ID: deliveryAuth.MetricLogout, Name: "deliveryauth_logout_total", Help: "Single-token logout operations."},
	{ID: deliveryAuth.MetricLogoutAll, Name: "deliveryauth_logout_all_total", Help: "Logout-all operations."},
	{ID: deliveryAuth.MetricAuthenticated, Name: "deliveryauth_authenticate_ok_total", Help: "Requests resolved to an identity."},
	{ID: deliveryAuth.MetricAuthAnonymous, Name: "deliveryauth_authenticate_anonymous_total", Help: "Requests without credentials."},
	{ID: deliveryAuth.MetricAuthRejected, Name: "deliveryauth_authenticate_rejected_total", Help: "Requests whose credential was ignored."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: deliveryAuth.MetricAuthenticateLatency, Name: "deliveryauth_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds are the upper bounds of the latency buckets in seconds.
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

// HistogramBoundSuffix maps each bound to a name-safe suffix for exporters
// without label support.
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

// NormalizeBuckets copies raw into a fixed-size bucket array, padding with zeros.
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
