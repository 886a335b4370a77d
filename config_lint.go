package portalgate

import (
	"fmt"
	"time"
)

// LintSeverity grades a LintWarning.
type LintSeverity string

const (
	LintInfo LintSeverity = "info"
	LintWarn LintSeverity = "warn"
	LintHigh LintSeverity = "high"
)

// LintWarning is a valid but questionable setting.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of Config.Lint.
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Code
	}
	return out
}

// AtLeast filters to warnings of severity s or worse.
func (ws LintWarnings) AtLeast(s LintSeverity) LintWarnings {
	rank := map[LintSeverity]int{LintInfo: 0, LintWarn: 1, LintHigh: 2}
	var out LintWarnings
	for _, w := range ws {
		if rank[w.Severity] >= rank[s] {
			out = append(out, w)
		}
	}
	return out
}

// Lint reports settings that pass Validate but weaken the deployment. It
// assumes the config is otherwise valid.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if c.Session.TTL > 24*time.Hour {
		add("session_ttl_long", LintWarn, "Session TTL %s exceeds 24h; stolen tokens stay usable that long", c.Session.TTL)
	}
	if c.Session.TokenBytes < 32 {
		add("token_entropy_low", LintInfo, "Session TokenBytes %d is below the 32-byte default", c.Session.TokenBytes)
	}
	if c.Assertion.Enabled && c.Assertion.TTL > 5*time.Minute {
		add("assertion_ttl_long", LintWarn, "Assertion TTL %s exceeds 5m", c.Assertion.TTL)
	}

	if c.Security.ProductionMode {
		if !c.Audit.Enabled {
			add("audit_disabled", LintHigh, "logins and denied checks are not audited")
		} else if c.Audit.DropIfFull {
			add("audit_drop_if_full", LintInfo, "audit events are dropped when the %d-slot buffer is full", c.Audit.BufferSize)
		}
		if !c.Assertion.Enabled {
			add("assertions_disabled", LintWarn, "gateway receives X-Portal-User without a signed assertion")
		}
	}

	return ws
}
