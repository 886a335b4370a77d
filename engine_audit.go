package portalgate

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

const (
	auditEventLoginSuccess  = "login_success"
	auditEventLoginFailure  = "login_failure"
	auditEventCheckDenied   = "check_denied"
	auditEventLogout        = "logout"
	auditEventAssertionFail = "assertion_failure"
)

// AuditErrorCode is the stable string stored in AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrAssertion          AuditErrorCode = "assertion_failed"
	auditErrUnknownSession     AuditErrorCode = "unknown_session"
	auditErrInternal           AuditErrorCode = "internal_error"
)

var (
	errCheckDenied    = errors.New("check denied")
	errUnknownSession = errors.New("unknown session")
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	username string,
	token string,
	ip string,
	mac string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if ip == "" {
		ip = clientIPFromContext(ctx)
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: e.clock.Now().UTC(),
		EventType: eventType,
		Username:  username,
		IP:        ip,
		MAC:       mac,
		RequestID: RequestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if token != "" {
		event.SessionID = MaskToken(token)
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, errCheckDenied):
		return auditErrUnauthorized
	case errors.Is(err, errUnknownSession):
		return auditErrUnknownSession
	case errors.Is(err, ErrCredentialBackend):
		return auditErrUnavailable
	case errors.Is(err, ErrAssertionFailed):
		return auditErrAssertion
	default:
		return auditErrInternal
	}
}

// MaskToken keeps the first eight characters of a token for correlation in
// logs and audit records.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "***"
}
