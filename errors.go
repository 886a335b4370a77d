package portalgate

import "errors"

var (
	// ErrInvalidCredentials is returned by Login and by CredentialVerifier
	// implementations when the username/password pair is rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCredentialBackend wraps verifier failures that are not a plain rejection.
	ErrCredentialBackend = errors.New("credential backend unavailable")
	// ErrEngineNotReady is returned when an Engine method is called on a nil or
	// partially built engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrAssertionFailed is recorded when a gateway assertion could not be signed.
	ErrAssertionFailed = errors.New("assertion signing failed")
)
