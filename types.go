package portalgate

import (
	"context"
	"time"

	"github.com/MrEthical07/portalgate/session"
)

// CredentialVerifier decides whether a username/password pair may open a
// portal session. Implementations return ErrInvalidCredentials (possibly
// wrapped) for a rejection; any other error is treated as a backend failure.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) error
}

// CredentialVerifierFunc adapts a function to CredentialVerifier.
type CredentialVerifierFunc func(ctx context.Context, username, password string) error

// Verify calls f.
func (f CredentialVerifierFunc) Verify(ctx context.Context, username, password string) error {
	return f(ctx, username, password)
}

// LoginRequest is the decoded portal login form. IP and MAC may be empty, in
// which case the session is not bound on that field.
type LoginRequest struct {
	Username string
	Password string
	IP       string
	MAC      string
}

// LoginResult is returned by Engine.Login on success.
type LoginResult struct {
	Token     string
	Username  string
	IP        string
	MAC       string
	ExpiresAt time.Time
}

// CheckResult is returned by Engine.Check for an allowed request.
// Assertion is empty when assertions are disabled or signing failed.
type CheckResult struct {
	Username  string
	ExpiresAt time.Time
	Assertion string
}

// SessionStats re-exports the store counters for exporters.
type SessionStats = session.Stats
