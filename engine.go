package portalgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/portalgate/assertion"
	"github.com/MrEthical07/portalgate/session"
)

// Engine is the portal's decision point: it turns accepted credentials into
// sessions, answers gateway checks, and revokes on logout. All methods are
// safe for concurrent use.
type Engine struct {
	config     Config
	store      *session.Store
	verifier   CredentialVerifier
	assertions *assertion.Issuer
	audit      *auditDispatcher
	metrics    *Metrics
	clock      session.Clock
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped is the number of audit events discarded under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// SessionStats reports store occupancy and lifetime counters.
func (e *Engine) SessionStats() SessionStats {
	if e == nil || e.store == nil {
		return SessionStats{}
	}
	return e.store.Stats()
}

// SessionTTL is the fixed lifetime given to new sessions.
func (e *Engine) SessionTTL() time.Duration {
	if e == nil || e.store == nil {
		return 0
	}
	return e.store.TTL()
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login verifies credentials and, on success, creates a session bound to the
// request's ip and mac. A rejected pair yields ErrInvalidCredentials; any other
// verifier error is wrapped in ErrCredentialBackend.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if e == nil || e.store == nil || e.verifier == nil {
		return nil, ErrEngineNotReady
	}

	ip := req.IP
	if ip == "" && e.config.Security.BindRemoteIP {
		ip = clientIPFromContext(ctx)
	}

	if err := e.verifier.Verify(ctx, req.Username, req.Password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, req.Username, "", ip, req.MAC, ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}

		e.metricInc(MetricLoginBackendError)
		wrapped := fmt.Errorf("%w: %v", ErrCredentialBackend, err)
		e.emitAudit(ctx, auditEventLoginFailure, false, req.Username, "", ip, req.MAC, wrapped, nil)
		return nil, wrapped
	}

	sess := e.store.Create(ip, req.MAC, req.Username)
	e.metricInc(MetricSessionCreated)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, sess.Username, sess.Token, sess.IP, sess.MAC, nil, nil)

	return &LoginResult{
		Token:     sess.Token,
		Username:  sess.Username,
		IP:        sess.IP,
		MAC:       sess.MAC,
		ExpiresAt: sess.ExpireAt,
	}, nil
}

// Check answers a gateway subrequest. Unknown, expired and mismatched tokens
// are indistinguishable: all return false.
func (e *Engine) Check(ctx context.Context, token, ip, mac string) (CheckResult, bool) {
	if e == nil || e.store == nil {
		return CheckResult{}, false
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
		defer func() {
			e.metrics.Observe(MetricCheckLatency, time.Since(start))
		}()
	}

	sess, ok := e.store.Lookup(token, ip, mac)
	if !ok {
		e.metricInc(MetricCheckDenied)
		if e.config.Audit.RecordDeniedChecks {
			e.emitAudit(ctx, auditEventCheckDenied, false, "", token, ip, mac, errCheckDenied, nil)
		}
		return CheckResult{}, false
	}
	e.metricInc(MetricCheckAllowed)

	res := CheckResult{
		Username:  sess.Username,
		ExpiresAt: sess.ExpireAt,
	}

	if e.assertions != nil {
		signed, err := e.assertions.Issue(sess.Username, sess.IP, sess.MAC, sess.ExpireAt)
		if err != nil {
			e.metricInc(MetricAssertionFailure)
			e.emitAudit(ctx, auditEventAssertionFail, false, sess.Username, token, sess.IP, sess.MAC,
				fmt.Errorf("%w: %v", ErrAssertionFailed, err), nil)
		} else {
			e.metricInc(MetricAssertionIssued)
			res.Assertion = signed
		}
	}

	return res, true
}

// Validate is Check without the assertion: a plain allow/deny.
func (e *Engine) Validate(token, ip, mac string) bool {
	if e == nil || e.store == nil {
		return false
	}
	return e.store.Validate(token, ip, mac)
}

// Logout revokes token. Unknown tokens are accepted silently and are not
// counted as logouts.
func (e *Engine) Logout(ctx context.Context, token string) {
	if e == nil || e.store == nil {
		return
	}
	if !e.store.Revoke(token) {
		e.emitAudit(ctx, auditEventLogout, false, "", token, "", "", errUnknownSession, nil)
		return
	}
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, "", token, "", "", nil, nil)
}

// ParseAssertion verifies an assertion produced by Check. It fails when
// assertions are disabled.
func (e *Engine) ParseAssertion(token string) (*assertion.Claims, error) {
	if e == nil || e.assertions == nil {
		return nil, ErrEngineNotReady
	}
	return e.assertions.Parse(token)
}
