// Package middleware adapts portalgate.Engine to gin.
//
// # Handlers
//
//   - [RequestContext]: assigns a request ID and records the client IP on the
//     request context so audit events can be correlated.
//   - [AccessLog]: one structured log line per request.
//   - [Guard]: gateway check. Extracts the token, calls Engine.Check and either
//     aborts with 401 or stores the [portalgate.CheckResult] for the handler.
//
// # What this package must NOT do
//
//   - Touch the session store directly (all decisions go through Engine).
//   - Log tokens unmasked.
//   - Distinguish unknown, expired and mismatched tokens in responses.
package middleware
