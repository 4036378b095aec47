package deliveryAuth

import (
	"fmt"
	"time"
)

// LintSeverity ranks a LintWarning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning flags a valid but questionable setting.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of warnings from Config.Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, len(r))
	for i, w := range r {
		out[i] = w.Code
	}
	return out
}

// AtLeast returns the warnings with severity >= min.
func (r LintResult) AtLeast(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// Lint inspects a configuration that already passed Validate. It never fails;
// the caller decides what to do with the warnings.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if c.JWT.AccessTTL > time.Hour {
		add("access_ttl_long", LintWarn,
			"access tokens live %s; a deactivated account keeps a valid token that long", c.JWT.AccessTTL)
	}
	if c.Refresh.RefreshTTL > 30*24*time.Hour {
		add("refresh_ttl_long", LintWarn, "refresh tokens live %s", c.Refresh.RefreshTTL)
	}
	if c.Refresh.RefreshTTL <= c.JWT.AccessTTL {
		add("refresh_shorter_than_access", LintHigh,
			"refresh TTL %s does not outlive access TTL %s", c.Refresh.RefreshTTL, c.JWT.AccessTTL)
	}
	if !c.Login.RateLimitEnabled {
		add("rate_limits_disabled", LintWarn, "login throttling is disabled")
	} else if !c.Login.EnableIPThrottle {
		add("ip_throttle_disabled", LintInfo, "login throttling is per identifier only")
	}
	if c.Audit.Enabled && c.Audit.DropIfFull {
		add("audit_drop_if_full", LintInfo, "audit events are dropped when the buffer is full")
	}
	if (c.JWT.SigningMethod == "" || c.JWT.SigningMethod == "hs256") && c.JWT.Issuer == "" {
		add("issuer_unset", LintInfo, "tokens carry no issuer claim")
	}

	return ws
}
