// Package portalgate is a captive-portal session gateway: clients log in on a
// portal page and receive an opaque token; a reverse proxy then asks, per
// request, whether a token/ip/mac combination is currently authorized.
//
// [Engine] is the public surface. Login verifies credentials through a
// pluggable [CredentialVerifier] and creates a session in the in-memory
// [session.Store]; Check answers gateway subrequests and optionally attaches a
// signed identity assertion; Logout revokes. Engine methods are safe to call
// from multiple goroutines after [Builder.Build].
//
// # What this package must NOT do
//
//   - Persist sessions or share them across processes.
//   - Tell callers why a check was denied; not-found, expired and binding
//     mismatch are one outcome.
//   - Log or audit full session tokens.
package portalgate
