// Package assertion signs and parses the short-lived identity assertion that
// the gateway check attaches to allowed requests (X-Portal-Assertion).
//
// An assertion is a compact JWT: sub is the portal username, ip and mac are
// the session bindings, exp is the earlier of now+TTL and the session's own
// expiry. Upstream services behind the gateway verify it with the shared HS256
// key or the Ed25519 public key instead of trusting a plain header.
//
// # What this package must NOT do
//
//   - Carry the session token; the assertion is not a credential for /api/check.
//   - Hold keys in package-level state.
package assertion
